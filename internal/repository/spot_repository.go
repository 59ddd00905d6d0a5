package repository // repository defines data access for spots

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// ErrSpotNotFound is returned when no spot matches a lookup.
var ErrSpotNotFound = errors.New("spot not found")

// spotInsertChunk bounds the rows per INSERT so large lots stay under the
// placeholder limits of every driver.
const spotInsertChunk = 500

// SpotRepo provides methods to work with spots in the database.
type SpotRepo struct {
	db *sqlx.DB
}

// NewSpotRepo constructs a SpotRepo with the given DB handle.
func NewSpotRepo(db *sqlx.DB) *SpotRepo {
	return &SpotRepo{db: db}
}

// CreateBulkTx inserts n available spots for lotID.
func (r *SpotRepo) CreateBulkTx(ctx context.Context, tx *sqlx.Tx, lotID uint64, n int) error {
	for n > 0 {
		batch := n
		if batch > spotInsertChunk {
			batch = spotInsertChunk
		}
		query := `INSERT INTO spots (lot_id, status) VALUES `
		args := make([]interface{}, 0, batch*2)
		for i := 0; i < batch; i++ {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, lotID, model.SpotAvailable)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return err
		}
		n -= batch
	}
	return nil
}

// FirstAvailable returns the lowest-id available spot of a lot.  This is
// the spot a booking made now would be assigned.
func (r *SpotRepo) FirstAvailable(ctx context.Context, lotID uint64) (*model.Spot, error) {
	var s model.Spot
	err := r.db.GetContext(ctx, &s, r.db.Rebind(
		`SELECT id, lot_id, status FROM spots
		 WHERE lot_id = ? AND status = ?
		 ORDER BY id LIMIT 1`), lotID, model.SpotAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSpotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AvailableIDsTx lists up to limit available spot ids of a lot, lowest
// first.
func (r *SpotRepo) AvailableIDsTx(ctx context.Context, tx *sqlx.Tx, lotID uint64, limit int) ([]uint64, error) {
	ids := []uint64{}
	err := tx.SelectContext(ctx, &ids, tx.Rebind(
		`SELECT id FROM spots WHERE lot_id = ? AND status = ? ORDER BY id LIMIT ?`),
		lotID, model.SpotAvailable, limit)
	return ids, err
}

// ClaimTx marks a spot occupied only if it is still available.  It
// reports false when another transaction claimed the spot first.
func (r *SpotRepo) ClaimTx(ctx context.Context, tx *sqlx.Tx, spotID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(
		`UPDATE spots SET status = ? WHERE id = ? AND status = ?`),
		model.SpotOccupied, spotID, model.SpotAvailable)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseTx marks a spot available again.  A spot that no longer exists is
// not an error.
func (r *SpotRepo) ReleaseTx(ctx context.Context, tx *sqlx.Tx, spotID uint64) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE spots SET status = ? WHERE id = ?`),
		model.SpotAvailable, spotID)
	return err
}

// CountByLotTx returns the total and available spot counts of a lot.
func (r *SpotRepo) CountByLotTx(ctx context.Context, tx *sqlx.Tx, lotID uint64) (total, available int, err error) {
	var row struct {
		Total     int `db:"total"`
		Available int `db:"available"`
	}
	err = tx.GetContext(ctx, &row, tx.Rebind(
		`SELECT COUNT(*) AS total,
		        COALESCE(SUM(CASE WHEN status = 'available' THEN 1 ELSE 0 END), 0) AS available
		 FROM spots WHERE lot_id = ?`), lotID)
	return row.Total, row.Available, err
}

// DeleteAvailableTx removes n available spots of a lot, highest id first,
// and returns how many rows were deleted.  Occupied spots are never
// touched, so the result may be smaller than n.
func (r *SpotRepo) DeleteAvailableTx(ctx context.Context, tx *sqlx.Tx, lotID uint64, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	ids := []uint64{}
	if err := tx.SelectContext(ctx, &ids, tx.Rebind(
		`SELECT id FROM spots WHERE lot_id = ? AND status = ? ORDER BY id DESC LIMIT ?`),
		lotID, model.SpotAvailable, n); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM spots WHERE status = ? AND id IN (?)`, model.SpotAvailable, ids)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	return int(deleted), err
}

// Occupancy summarises all spots of all lots.
func (r *SpotRepo) Occupancy(ctx context.Context) (model.Occupancy, error) {
	var row struct {
		Total    int `db:"total"`
		Occupied int `db:"occupied"`
	}
	err := r.db.GetContext(ctx, &row, r.db.Rebind(
		`SELECT COUNT(*) AS total,
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS occupied
		 FROM spots`), model.SpotOccupied)
	if err != nil {
		return model.Occupancy{}, err
	}
	return model.Occupancy{Total: row.Total, Occupied: row.Occupied, Vacant: row.Total - row.Occupied}, nil
}

// ListByLot returns the spots of a lot ordered by id.
func (r *SpotRepo) ListByLot(ctx context.Context, lotID uint64) ([]model.Spot, error) {
	spots := []model.Spot{}
	err := r.db.SelectContext(ctx, &spots, r.db.Rebind(
		`SELECT id, lot_id, status FROM spots WHERE lot_id = ? ORDER BY id`), lotID)
	return spots, err
}
