package model

import "time"

// Lot represents a parking lot managed by an administrator.  The
// Capacity column is the configured number of spots; after every
// admin edit the number of rows in `spots` for the lot equals it.
//
// Fields:
//  ID           – primary key identifier.
//  Location     – short prime-location label (e.g. "Main Campus").
//  Address      – street address.
//  PostalCode   – postal / PIN code.
//  PricePerHour – current hourly rate.
//  Capacity     – configured number of spots.
//  IsShaded     – whether the lot is covered.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Lot struct {
	ID           uint64    `db:"id"`             // lots.id
	Location     string    `db:"location"`       // lots.location
	Address      string    `db:"address"`        // lots.address
	PostalCode   string    `db:"postal_code"`    // lots.postal_code
	PricePerHour float64   `db:"price_per_hour"` // lots.price_per_hour
	Capacity     int       `db:"capacity"`       // lots.capacity
	IsShaded     bool      `db:"is_shaded"`      // lots.is_shaded
	CreatedAt    time.Time `db:"created_at"`     // lots.created_at
	UpdatedAt    time.Time `db:"updated_at"`     // lots.updated_at
}

// LotAvailability decorates a lot with live spot counts.  It is the
// row type of the dashboards and of the lot detail page.
type LotAvailability struct {
	Lot
	TotalSpots     int `db:"total_spots"`
	AvailableSpots int `db:"available_spots"`
}

// OccupiedSpots returns the number of spots currently in use.
func (l LotAvailability) OccupiedSpots() int { return l.TotalSpots - l.AvailableSpots }
