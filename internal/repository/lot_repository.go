package repository // repository defines data access for parking lots

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides ErrNoRows
	"errors"       // errors for sentinel matching
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/database"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

const lotColumns = "l.id, l.location, l.address, l.postal_code, l.price_per_hour, l.capacity, l.is_shaded, l.created_at, l.updated_at"

// availabilitySelect counts the spots of each lot in one pass.  Grouping by
// the primary key is enough for every supported database.
const availabilitySelect = `SELECT ` + lotColumns + `,
	       COUNT(s.id) AS total_spots,
	       COALESCE(SUM(CASE WHEN s.status = 'available' THEN 1 ELSE 0 END), 0) AS available_spots
	FROM lots l
	LEFT JOIN spots s ON s.lot_id = l.id`

// LotRepo provides methods to work with lots in the database.
type LotRepo struct {
	db *sqlx.DB
}

// NewLotRepo constructs a LotRepo with the given DB handle.
func NewLotRepo(db *sqlx.DB) *LotRepo {
	return &LotRepo{db: db}
}

// CreateTx inserts l inside tx and populates l.ID.
func (r *LotRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, l *model.Lot) error {
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = l.CreatedAt
	id, err := database.InsertID(ctx, tx,
		`INSERT INTO lots (location, address, postal_code, price_per_hour, capacity, is_shaded, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Location, l.Address, l.PostalCode, l.PricePerHour, l.Capacity, l.IsShaded, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// GetByID returns a lot by id or ErrLotNotFound.
func (r *LotRepo) GetByID(ctx context.Context, id uint64) (*model.Lot, error) {
	return getLot(ctx, r.db, id, "")
}

// GetByIDTx reads the lot inside tx and locks the row on databases that
// support FOR UPDATE, so a concurrent delete waits for the booking or edit.
func (r *LotRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Lot, error) {
	return getLot(ctx, tx, id, forUpdate(tx))
}

func getLot(ctx context.Context, q sqlx.ExtContext, id uint64, suffix string) (*model.Lot, error) {
	var l model.Lot
	err := sqlx.GetContext(ctx, q, &l,
		q.Rebind("SELECT "+lotColumns+" FROM lots l WHERE l.id = ?"+suffix), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateTx writes the editable attributes of l.
func (r *LotRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, l *model.Lot) error {
	l.UpdatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx, tx.Rebind(
		`UPDATE lots SET location = ?, address = ?, postal_code = ?, price_per_hour = ?, capacity = ?, is_shaded = ?, updated_at = ?
		 WHERE id = ?`),
		l.Location, l.Address, l.PostalCode, l.PricePerHour, l.Capacity, l.IsShaded, l.UpdatedAt, l.ID)
	if err != nil {
		return err
	}
	return expectOne(res, ErrLotNotFound)
}

// DeleteTx removes the lot; its spots go with it through ON DELETE CASCADE
// and reservations keep their history with lot_id set to NULL.
func (r *LotRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM lots WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return expectOne(res, ErrLotNotFound)
}

// Count returns the number of lots.
func (r *LotRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM lots")
	return n, err
}

// ListWithAvailability returns every lot with its total and available
// spot counts, ordered by id.
func (r *LotRepo) ListWithAvailability(ctx context.Context) ([]model.LotAvailability, error) {
	lots := []model.LotAvailability{}
	err := r.db.SelectContext(ctx, &lots, availabilitySelect+" GROUP BY l.id ORDER BY l.id")
	return lots, err
}

// GetWithAvailability returns one lot with its spot counts.
func (r *LotRepo) GetWithAvailability(ctx context.Context, id uint64) (*model.LotAvailability, error) {
	var l model.LotAvailability
	err := r.db.GetContext(ctx, &l, r.db.Rebind(availabilitySelect+" WHERE l.id = ? GROUP BY l.id"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// forUpdate returns the row lock clause for drivers that have one.  SQLite
// serialises writers through its single connection instead.
func forUpdate(tx *sqlx.Tx) string {
	if tx.DriverName() == database.SQLite {
		return ""
	}
	return " FOR UPDATE"
}
