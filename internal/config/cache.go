package config

import "time"

// CacheConfig defines settings for the lookup response cache. Only the
// non-mutating ticket lookup is cached; scans must always hit the
// database. The TTL is deliberately short so a freshly disabled ticket
// stops validating within seconds.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* environment variables to build a
// CacheConfig. Defaults cache successful lookups for ten seconds.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 10*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "lookup"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
