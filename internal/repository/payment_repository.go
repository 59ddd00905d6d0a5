package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/database"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// PaymentRepo handles persistence for payments recorded at release.
type PaymentRepo struct{ db *sqlx.DB }

// NewPaymentRepo constructs a PaymentRepo with the given DB handle.
func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx records the payment for a completed reservation.  The UNIQUE
// key on reservation_id turns a second payment into ErrConflict.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, p *model.Payment) error {
	id, err := database.InsertID(ctx, tx,
		"INSERT INTO payments (reservation_id, amount, method, paid_at) VALUES (?, ?, ?, ?)",
		p.ReservationID, p.Amount, p.Method, p.PaidAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	p.ID = id
	return nil
}

// GetByReservation returns the payment of a reservation.
func (r *PaymentRepo) GetByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	var p model.Payment
	err := r.db.GetContext(ctx, &p, r.db.Rebind(
		"SELECT id, reservation_id, amount, method, paid_at FROM payments WHERE reservation_id = ?"), reservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
