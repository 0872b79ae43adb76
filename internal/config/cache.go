package config

import "time"

// CacheConfig defines lifetimes for the derived read views kept in Redis.
// TTL applies to event lists and event details; AvailabilityTTL is shorter
// because availability changes with every booking.  The TTL is the upper
// bound on staleness when an explicit invalidation is lost.
type CacheConfig struct {
	TTL             time.Duration `env:"CACHE_TTL" env-default:"300s"`
	AvailabilityTTL time.Duration `env:"CACHE_AVAILABILITY_TTL" env-default:"60s"`
}
