package model

import "time"

// PaymentMethodCash is the only payment method; payments are recorded,
// not collected.
const PaymentMethodCash = "Cash"

// Payment is created exactly once, when a reservation is released.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – the completed reservation (unique).
//  Amount        – total cost rounded to two decimals.
//  Method        – always "Cash".
//  PaidAt        – transaction timestamp (the release time).
type Payment struct {
	ID            uint64    `db:"id"`             // payments.id
	ReservationID uint64    `db:"reservation_id"` // payments.reservation_id
	Amount        float64   `db:"amount"`         // payments.amount
	Method        string    `db:"method"`         // payments.method
	PaidAt        time.Time `db:"paid_at"`        // payments.paid_at
}
