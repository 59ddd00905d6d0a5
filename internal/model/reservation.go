package model

import (
	"database/sql"
	"time"
)

// Reservation records a user's booking of a spot.  It is created
// ongoing with a NULL end time and becomes completed on release.
// PricePerHour is captured from the lot at booking time so that later
// price edits do not affect a running session.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who booked the spot.
//  LotID         – lot of the spot (NULL once the lot is deleted).
//  SpotID        – booked spot (NULL once the spot is removed).
//  StartTime     – when the booking started.
//  EndTime       – when the spot was released (NULL while ongoing).
//  PricePerHour  – hourly rate snapshot.
//  VehicleNumber – registration number of the parked vehicle.
//  IsOngoing     – true until released.
type Reservation struct {
	ID            uint64        `db:"id"`             // reservations.id
	UserID        uint64        `db:"user_id"`        // reservations.user_id
	LotID         sql.NullInt64 `db:"lot_id"`         // reservations.lot_id (nullable)
	SpotID        sql.NullInt64 `db:"spot_id"`        // reservations.spot_id (nullable)
	StartTime     time.Time     `db:"start_time"`     // reservations.start_time
	EndTime       sql.NullTime  `db:"end_time"`       // reservations.end_time (nullable)
	PricePerHour  float64       `db:"price_per_hour"` // reservations.price_per_hour
	VehicleNumber string        `db:"vehicle_number"` // reservations.vehicle_number
	IsOngoing     bool          `db:"is_ongoing"`     // reservations.is_ongoing
}

// Duration returns the billed duration: end-start for completed
// reservations, now-start for ongoing ones.
func (r Reservation) Duration(now time.Time) time.Duration {
	if r.EndTime.Valid {
		return r.EndTime.Time.Sub(r.StartTime)
	}
	return now.Sub(r.StartTime)
}

// ReservationDetail joins a reservation with its lot, user and payment
// for the summary, history and ledger pages.  Lot and payment columns
// are nullable because the lot may have been deleted and ongoing
// reservations have no payment yet.
type ReservationDetail struct {
	Reservation
	UserEmail     string          `db:"user_email"`
	UserName      string          `db:"user_name"`
	LotLocation   sql.NullString  `db:"lot_location"`
	LotAddress    sql.NullString  `db:"lot_address"`
	PaymentID     sql.NullInt64   `db:"payment_id"`
	PaymentAmount sql.NullFloat64 `db:"payment_amount"`
	PaymentMethod sql.NullString  `db:"payment_method"`
	PaidAt        sql.NullTime    `db:"paid_at"`
}

// LotLabel returns the lot location or a placeholder for removed lots.
func (d ReservationDetail) LotLabel() string {
	if d.LotLocation.Valid {
		return d.LotLocation.String
	}
	return "Lot removed"
}
