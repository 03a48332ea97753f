package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the owner-scoped response cache.
// When Enabled is false the middleware is a pass-through.  Backend selects
// where entries live: "redis" (shared across instances, falls back to
// memory when no Redis client is available) or "memory" (bigcache, per
// process).  Only GET responses with status 200 are cached; writes by an
// owner bump that owner's generation so stale entries are never served.
type CacheConfig struct {
	Enabled      bool
	Backend      string
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Backend:      strings.ToLower(envStr("CACHE_BACKEND", "redis")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1048576),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Backend != "redis" && cfg.Backend != "memory" {
		cfg.Backend = "memory"
	}
	return cfg
}
