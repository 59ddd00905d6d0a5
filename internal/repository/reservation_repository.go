package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/database"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// ReservationRepo handles persistence for reservations.
type ReservationRepo struct {
	db *sqlx.DB
}

// NewReservationRepo constructs a ReservationRepo with the given DB handle.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = "id, user_id, lot_id, spot_id, start_time, end_time, price_per_hour, vehicle_number, is_ongoing"

// detailSelect joins a reservation with its user, lot and payment.  The lot
// and payment sides are optional: lots can be deleted and ongoing
// reservations are not paid yet.
const detailSelect = `SELECT r.id AS id, r.user_id AS user_id, r.lot_id AS lot_id, r.spot_id AS spot_id,
	       r.start_time AS start_time, r.end_time AS end_time, r.price_per_hour AS price_per_hour,
	       r.vehicle_number AS vehicle_number, r.is_ongoing AS is_ongoing,
	       u.email AS user_email, u.name AS user_name,
	       l.location AS lot_location, l.address AS lot_address,
	       p.id AS payment_id, p.amount AS payment_amount, p.method AS payment_method, p.paid_at AS paid_at
	FROM reservations r
	JOIN users u ON u.id = r.user_id
	LEFT JOIN lots l ON l.id = r.lot_id
	LEFT JOIN payments p ON p.reservation_id = r.id`

// CreateTx inserts a reservation inside the given transaction and sets
// res.ID.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, res *model.Reservation) error {
	id, err := database.InsertID(ctx, tx,
		`INSERT INTO reservations (user_id, lot_id, spot_id, start_time, end_time, price_per_hour, vehicle_number, is_ongoing)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.UserID, res.LotID, res.SpotID, res.StartTime, res.EndTime, res.PricePerHour, res.VehicleNumber, res.IsOngoing)
	if err != nil {
		return err
	}
	res.ID = id
	return nil
}

// HasOngoingTx reports whether the user already holds an ongoing
// reservation.
func (r *ReservationRepo) HasOngoingTx(ctx context.Context, tx *sqlx.Tx, userID uint64) (bool, error) {
	var n int
	err := tx.GetContext(ctx, &n, tx.Rebind(
		`SELECT COUNT(*) FROM reservations WHERE user_id = ? AND is_ongoing = ?`), userID, true)
	return n > 0, err
}

// HasOngoingForLotTx reports whether any ongoing reservation references the
// lot.
func (r *ReservationRepo) HasOngoingForLotTx(ctx context.Context, tx *sqlx.Tx, lotID uint64) (bool, error) {
	var n int
	err := tx.GetContext(ctx, &n, tx.Rebind(
		`SELECT COUNT(*) FROM reservations WHERE lot_id = ? AND is_ongoing = ?`), lotID, true)
	return n > 0, err
}

// GetForUserTx loads a reservation owned by userID.  A reservation of
// another user is reported as ErrReservationNotFound.
func (r *ReservationRepo) GetForUserTx(ctx context.Context, tx *sqlx.Tx, id, userID uint64) (*model.Reservation, error) {
	var res model.Reservation
	err := tx.GetContext(ctx, &res, tx.Rebind(
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ? AND user_id = ?"+forUpdate(tx)), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CompleteTx ends an ongoing reservation.  The update is conditional on
// is_ongoing so that of two concurrent releases only one succeeds; the
// loser gets ErrConflict.
func (r *ReservationRepo) CompleteTx(ctx context.Context, tx *sqlx.Tx, id uint64, end time.Time) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(
		`UPDATE reservations SET end_time = ?, is_ongoing = ? WHERE id = ? AND is_ongoing = ?`),
		end, false, id, true)
	if err != nil {
		return err
	}
	return expectOne(res, ErrConflict)
}

// OngoingByUser returns the user's ongoing reservations (at most one) with
// lot details, for the dashboard.
func (r *ReservationRepo) OngoingByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	out := []model.ReservationDetail{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		detailSelect+" WHERE r.user_id = ? AND r.is_ongoing = ? ORDER BY r.id"), userID, true)
	return out, err
}

// ListByUser returns every reservation of a user, newest first, with
// payment columns filled for completed ones.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	out := []model.ReservationDetail{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		detailSelect+" WHERE r.user_id = ? ORDER BY r.start_time DESC, r.id DESC"), userID)
	return out, err
}

// ListCompletedByUser returns the user's paid reservations, newest first.
func (r *ReservationRepo) ListCompletedByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	out := []model.ReservationDetail{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		detailSelect+" WHERE r.user_id = ? AND r.is_ongoing = ? AND p.id IS NOT NULL ORDER BY r.end_time DESC, r.id DESC"),
		userID, false)
	return out, err
}

// ListAll returns the full ledger for the admin records page.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.ReservationDetail, error) {
	out := []model.ReservationDetail{}
	err := r.db.SelectContext(ctx, &out, detailSelect+" ORDER BY r.id DESC")
	return out, err
}
