// Package service holds the write paths of the parking application:
// accounts, bookings and lot management.  Every multi-row change runs in
// one transaction; side effects (cache invalidation, metrics, events)
// happen only after commit.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/metrics"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/queue"
)

// EventPublisher delivers parking events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ParkingEvent) error
}

// StatsCache caches the system wide occupancy summary.
type StatsCache interface {
	Get(ctx context.Context) (model.Occupancy, bool)
	Set(ctx context.Context, occ model.Occupancy)
	Invalidate(ctx context.Context)
}

// Option configures a service.
type Option func(*options)

type options struct {
	now       func() time.Time
	publisher EventPublisher
	stats     StatsCache
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPublisher enables parking events.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithStatsCache enables the occupancy cache.
func WithStatsCache(c StatsCache) Option {
	return func(o *options) { o.stats = c }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) clock() time.Time { return o.now().UTC() }

func (o options) invalidateStats(ctx context.Context) {
	if o.stats != nil {
		o.stats.Invalidate(ctx)
	}
}

// publish sends ev on a best effort basis.  The request that triggered it
// has already committed, so a broker failure is only logged.
func (o options) publish(ctx context.Context, ev queue.ParkingEvent) {
	if o.publisher == nil {
		return
	}
	err := o.publisher.Publish(ctx, ev)
	metrics.RecordPublish(ev.Kind, err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("kind", ev.Kind).Uint64("reservation_id", ev.ReservationID).Msg("parking event not published")
	}
}
