// Package cache keeps the admin occupancy summary in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/parking-lot-reservation/internal/config"
	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/metrics"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// StatsCache stores model.Occupancy under a single key.  Redis errors are
// logged and reported as misses; the database stays the source of truth.
type StatsCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewStatsCache returns nil when caching is disabled or rdb is nil.
func NewStatsCache(cfg config.StatsCacheConfig, rdb *redis.Client) *StatsCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &StatsCache{rdb: rdb, key: cfg.Prefix + ":occupancy", ttl: cfg.TTL}
}

// Get returns the cached summary and whether it was present.
func (s *StatsCache) Get(ctx context.Context) (model.Occupancy, bool) {
	var occ model.Occupancy
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Ctx(ctx).Warn().Err(err).Msg("stats cache: get failed")
		}
		metrics.StatsCacheMisses.Inc()
		return occ, false
	}
	if err := json.Unmarshal(raw, &occ); err != nil {
		metrics.StatsCacheMisses.Inc()
		return occ, false
	}
	metrics.StatsCacheHits.Inc()
	return occ, true
}

// Set stores occ for the configured TTL.
func (s *StatsCache) Set(ctx context.Context, occ model.Occupancy) {
	raw, err := json.Marshal(occ)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("stats cache: set failed")
	}
}

// Invalidate drops the cached summary.
func (s *StatsCache) Invalidate(ctx context.Context) {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("stats cache: invalidate failed")
	}
}
