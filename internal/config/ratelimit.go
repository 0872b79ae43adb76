package config

import "time"

// RateLimitConfig configures the Redis token bucket in front of the API.
type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" env-default:"100"`
	RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS" env-default:"100"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" env-default:"1m"`
	TTL            time.Duration `env:"RATE_LIMIT_TTL" env-default:"10m"`
	Prefix         string        `env:"RATE_LIMIT_PREFIX" env-default:"rate_limit"`
}

func (r *RateLimitConfig) normalize() {
	if r.Capacity < 1 {
		r.Capacity = 1
	}
	if r.RefillTokens < 1 {
		r.RefillTokens = 1
	}
	if r.RefillInterval <= 0 {
		r.RefillInterval = time.Second
	}
	if minTTL := 5 * r.RefillInterval; r.TTL < minTTL {
		r.TTL = minTTL
	}
}
