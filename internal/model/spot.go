package model

// SpotStatus is the availability state of a single spot.
type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
)

// Spot is one parking place inside a lot.  A spot is occupied exactly
// while one ongoing reservation references it.
type Spot struct {
	ID     uint64     `db:"id"`     // spots.id
	LotID  uint64     `db:"lot_id"` // spots.lot_id
	Status SpotStatus `db:"status"` // spots.status
}

// Occupancy is the system wide spot summary shown on the admin chart.
type Occupancy struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
	Vacant   int `json:"vacant"`
}
