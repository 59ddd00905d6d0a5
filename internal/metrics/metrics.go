// Package metrics holds the prometheus collectors of the parking service.
// Collectors register with the default registry at init; /metrics serves
// them through promhttp.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parking_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_rate_limited_total",
			Help: "Requests rejected by the token bucket",
		},
		[]string{"route"},
	)

	// Booking engine
	Bookings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parking_bookings_total",
			Help: "Spots booked",
		},
	)

	Releases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parking_releases_total",
			Help: "Spots released",
		},
	)

	Revenue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parking_revenue_total",
			Help: "Sum of recorded payments",
		},
	)

	BookingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_booking_failures_total",
			Help: "Rejected bookings by reason",
		},
		[]string{"reason"}, // active_reservation, no_spot, storage, ...
	)

	ClaimRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parking_spot_claim_retries_total",
			Help: "Spot claims lost to a concurrent booking",
		},
	)

	// Lots
	LotChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_lot_changes_total",
			Help: "Admin lot operations",
		},
		[]string{"op"}, // create, update, delete
	)

	OccupiedSpots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parking_spots_occupied",
			Help: "Occupied spots as of the last occupancy read",
		},
	)

	TotalSpots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parking_spots_total",
			Help: "All spots as of the last occupancy read",
		},
	)

	// Stats cache
	StatsCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parking_stats_cache_hits_total",
			Help: "Occupancy reads served from redis",
		},
	)

	StatsCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parking_stats_cache_misses_total",
			Help: "Occupancy reads that went to the database",
		},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_events_published_total",
			Help: "Parking events handed to the broker",
		},
		[]string{"kind", "result"}, // result: ok, error
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordRelease counts a release and its payment.
func RecordRelease(amount float64) {
	Releases.Inc()
	if amount > 0 {
		Revenue.Add(amount)
	}
}

// RecordOccupancy updates the spot gauges.
func RecordOccupancy(total, occupied int) {
	TotalSpots.Set(float64(total))
	OccupiedSpots.Set(float64(occupied))
}

// RecordPublish counts a publish attempt.
func RecordPublish(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(kind, result).Inc()
}
