// Package cache is a read-through cache of derived event views kept in
// Redis.  Entries are never authoritative: any of them may be missing or
// expired and callers always fall back to MySQL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// scanBatch is the COUNT hint passed to SCAN during invalidation.
const scanBatch = 100

// RedisCache stores JSON encoded values with per-entry TTLs.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get decodes the value stored at key into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// Put stores value at key for ttl.  A non-positive ttl is rejected so no
// entry can outlive the staleness window.
func (c *RedisCache) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache put %s: ttl must be positive", key)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

// InvalidatePattern deletes every key matching the glob pattern and returns
// how many were removed.  SCAN is used instead of KEYS so a large keyspace
// does not block the server.  Keys are collected over the full iteration
// before any is deleted, since deleting mid-scan can shift the cursor.
func (c *RedisCache) InvalidatePattern(ctx context.Context, pattern string) (int64, error) {
	var matched []string
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		matched = append(matched, keys...)
		if next == 0 {
			break
		}
		cursor = next
	}

	var removed int64
	for start := 0; start < len(matched); start += scanBatch {
		end := min(start+scanBatch, len(matched))
		n, err := c.client.Del(ctx, matched[start:end]...).Result()
		if err != nil {
			return removed, fmt.Errorf("cache del %s: %w", pattern, err)
		}
		removed += n
	}
	return removed, nil
}

// Ping reports whether Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
