package config

import "time"

// StatsCacheConfig defines how long the admin occupancy counts may be
// served from redis.  Entries are also dropped on every booking,
// release and lot change, so the TTL only bounds staleness caused by
// writers that bypass the application.
type StatsCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadStatsCacheConfig reads STATS_CACHE_* variables.
func LoadStatsCacheConfig() StatsCacheConfig {
	cfg := StatsCacheConfig{
		Enabled: envBool("STATS_CACHE_ENABLED", true),
		TTL:     envDur("STATS_CACHE_TTL", 30*time.Second),
		Prefix:  getenv("STATS_CACHE_PREFIX", "parking:stats"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}
