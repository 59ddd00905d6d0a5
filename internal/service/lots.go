package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/metrics"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/validation"
)

// MaxLotCapacity caps the spots of a single lot.
const MaxLotCapacity = 10000

// LotInput is the admin lot form.  Capacity and Price arrive as raw form
// strings and are parsed after the presence checks.
type LotInput struct {
	Location   string `validate:"required,max=30"`
	Address    string `validate:"required,max=150"`
	PostalCode string `validate:"required,max=10"`
	Capacity   string `validate:"required"`
	Price      string `validate:"required"`
	IsShaded   bool
}

// LotDetail is a lot with its counts and spot map.
type LotDetail struct {
	model.LotAvailability
	Spots []model.Spot
}

// LotService manages lots and their spots.
type LotService struct {
	db           *sqlx.DB
	lots         *repository.LotRepo
	spots        *repository.SpotRepo
	reservations *repository.ReservationRepo
	opts         options
}

// NewLotService wires the repositories used by lot management.
func NewLotService(db *sqlx.DB, lots *repository.LotRepo, spots *repository.SpotRepo,
	reservations *repository.ReservationRepo, opts ...Option) *LotService {
	if db == nil || lots == nil || spots == nil || reservations == nil {
		panic("nil dependency passed to NewLotService")
	}
	return &LotService{db: db, lots: lots, spots: spots, reservations: reservations, opts: newOptions(opts)}
}

// parse validates in and returns the lot attributes it describes.
func (in LotInput) parse() (model.Lot, error) {
	in.Location = strings.TrimSpace(in.Location)
	in.Address = strings.TrimSpace(in.Address)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Capacity = strings.TrimSpace(in.Capacity)
	in.Price = strings.TrimSpace(in.Price)

	if err := validation.Struct(in); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) && !verrs.Has("required") {
			return model.Lot{}, ErrFieldTooLong
		}
		return model.Lot{}, ErrMissingFields
	}
	capacity, err := strconv.Atoi(in.Capacity)
	if err != nil || capacity < 1 || capacity > MaxLotCapacity {
		return model.Lot{}, ErrInvalidCapacity
	}
	price, err := strconv.ParseFloat(in.Price, 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.Lot{}, ErrInvalidPrice
	}
	return model.Lot{
		Location:     in.Location,
		Address:      in.Address,
		PostalCode:   in.PostalCode,
		PricePerHour: price,
		Capacity:     capacity,
		IsShaded:     in.IsShaded,
	}, nil
}

// Create inserts a lot and exactly Capacity available spots.
func (s *LotService) Create(ctx context.Context, in LotInput) (*model.Lot, error) {
	lot, err := in.parse()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	lot.CreatedAt = s.opts.clock()
	if err := s.lots.CreateTx(ctx, tx, &lot); err != nil {
		return nil, storageErr("insert lot", err)
	}
	if err := s.spots.CreateBulkTx(ctx, tx, lot.ID, lot.Capacity); err != nil {
		return nil, storageErr("insert spots", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit", err)
	}
	committed = true

	metrics.LotChanges.WithLabelValues("create").Inc()
	s.opts.invalidateStats(ctx)
	return &lot, nil
}

// Update changes the lot attributes and reconciles its spots with the new
// capacity.  Growing adds available spots; shrinking removes available
// spots, highest id first, and fails with ErrCapacityBelowOccupied when
// occupied spots would have to go.  Either way nothing is written unless
// the whole change succeeds.
func (s *LotService) Update(ctx context.Context, lotID uint64, in LotInput) (*model.Lot, error) {
	attrs, err := in.parse()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	lot, err := s.lots.GetByIDTx(ctx, tx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return nil, err
		}
		return nil, storageErr("load lot", err)
	}
	lot.Location = attrs.Location
	lot.Address = attrs.Address
	lot.PostalCode = attrs.PostalCode
	lot.PricePerHour = attrs.PricePerHour
	lot.Capacity = attrs.Capacity
	lot.IsShaded = attrs.IsShaded
	if err := s.lots.UpdateTx(ctx, tx, lot); err != nil {
		return nil, storageErr("update lot", err)
	}

	total, _, err := s.spots.CountByLotTx(ctx, tx, lotID)
	if err != nil {
		return nil, storageErr("count spots", err)
	}
	switch {
	case lot.Capacity > total:
		if err := s.spots.CreateBulkTx(ctx, tx, lotID, lot.Capacity-total); err != nil {
			return nil, storageErr("insert spots", err)
		}
	case lot.Capacity < total:
		need := total - lot.Capacity
		deleted, err := s.spots.DeleteAvailableTx(ctx, tx, lotID, need)
		if err != nil {
			return nil, storageErr("delete spots", err)
		}
		if deleted < need {
			return nil, ErrCapacityBelowOccupied
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit", err)
	}
	committed = true

	metrics.LotChanges.WithLabelValues("update").Inc()
	s.opts.invalidateStats(ctx)
	return lot, nil
}

// Delete removes a lot that has no ongoing reservation.
func (s *LotService) Delete(ctx context.Context, lotID uint64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.lots.GetByIDTx(ctx, tx, lotID); err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return err
		}
		return storageErr("load lot", err)
	}
	busy, err := s.reservations.HasOngoingForLotTx(ctx, tx, lotID)
	if err != nil {
		return storageErr("check reservations", err)
	}
	if busy {
		return ErrLotOccupied
	}
	if err := s.lots.DeleteTx(ctx, tx, lotID); err != nil {
		return storageErr("delete lot", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	committed = true

	metrics.LotChanges.WithLabelValues("delete").Inc()
	s.opts.invalidateStats(ctx)
	return nil
}

// Stats returns the occupancy over all spots, from the cache when one is
// configured and warm.
func (s *LotService) Stats(ctx context.Context) (model.Occupancy, error) {
	if s.opts.stats != nil {
		if occ, ok := s.opts.stats.Get(ctx); ok {
			return occ, nil
		}
	}
	occ, err := s.spots.Occupancy(ctx)
	if err != nil {
		return model.Occupancy{}, storageErr("occupancy", err)
	}
	metrics.RecordOccupancy(occ.Total, occ.Occupied)
	if s.opts.stats != nil {
		s.opts.stats.Set(ctx, occ)
	}
	return occ, nil
}

// List returns all lots with availability counts.
func (s *LotService) List(ctx context.Context) ([]model.LotAvailability, error) {
	lots, err := s.lots.ListWithAvailability(ctx)
	if err != nil {
		return nil, storageErr("list lots", err)
	}
	return lots, nil
}

// Get returns a lot for the edit form.
func (s *LotService) Get(ctx context.Context, lotID uint64) (*model.Lot, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil && !errors.Is(err, repository.ErrLotNotFound) {
		return nil, storageErr("load lot", err)
	}
	return lot, err
}

// Detail returns a lot with its counts and spot map.
func (s *LotService) Detail(ctx context.Context, lotID uint64) (*LotDetail, error) {
	lot, err := s.lots.GetWithAvailability(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return nil, err
		}
		return nil, storageErr("load lot", err)
	}
	spots, err := s.spots.ListByLot(ctx, lotID)
	if err != nil {
		return nil, storageErr("list spots", err)
	}
	return &LotDetail{LotAvailability: *lot, Spots: spots}, nil
}

// SampleLots are created on an empty database when seeding is enabled.
var SampleLots = []LotInput{
	{Location: "NICMAR Main Campus", Address: "NICMAR University, Pune-Bangalore Highway", PostalCode: "411045", Capacity: "50", Price: "15.0", IsShaded: true},
	{Location: "NICMAR Hostel Area", Address: "NICMAR Hostel Complex, Pune", PostalCode: "411045", Capacity: "30", Price: "10.0"},
}

// SeedSampleLots creates SampleLots when no lot exists yet and returns how
// many were created.
func (s *LotService) SeedSampleLots(ctx context.Context) (int, error) {
	n, err := s.lots.Count(ctx)
	if err != nil {
		return 0, storageErr("count lots", err)
	}
	if n > 0 {
		return 0, nil
	}
	created := 0
	for _, in := range SampleLots {
		lot, err := s.Create(ctx, in)
		if err != nil {
			return created, err
		}
		created++
		logging.Info().Uint64("lot_id", lot.ID).Str("location", lot.Location).Int("spots", lot.Capacity).Msg("sample lot created")
	}
	return created, nil
}
