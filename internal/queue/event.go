// Package queue defines the parking events exchanged over RabbitMQ, the
// publisher used by the web server and the receipts consumer.
package queue

import "time"

// QueueName is the durable queue carrying ParkingEvent messages.
const QueueName = "parking.events"

// Event kinds.
const (
	KindBooked   = "booked"
	KindReleased = "released"
)

// ParkingEvent is published after a booking or release has committed.  It
// carries enough for a consumer to write a receipt line without querying
// the database.
type ParkingEvent struct {
	Kind          string     `json:"kind"`           // booked | released
	ReservationID uint64     `json:"reservation_id"`
	UserID        uint64     `json:"user_id"`
	LotID         uint64     `json:"lot_id,omitempty"`
	SpotID        uint64     `json:"spot_id,omitempty"`
	Location      string     `json:"location,omitempty"`
	Vehicle       string     `json:"vehicle"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`     // set for released
	PricePerHour  float64    `json:"price_per_hour"`
	Amount        float64    `json:"amount,omitempty"`       // set for released
	OccurredAt    time.Time  `json:"occurred_at"`
}
