package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/metrics"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/queue"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/validation"
)

// claimRounds bounds how often Book re-reads the free spots after losing
// every candidate of a round to concurrent bookings.
const (
	claimRounds     = 3
	claimCandidates = 5
)

// BookingService books and releases spots.
type BookingService struct {
	db           *sqlx.DB
	lots         *repository.LotRepo
	spots        *repository.SpotRepo
	reservations *repository.ReservationRepo
	payments     *repository.PaymentRepo
	opts         options
}

// NewBookingService wires the repositories used by the booking engine.
func NewBookingService(db *sqlx.DB, lots *repository.LotRepo, spots *repository.SpotRepo,
	reservations *repository.ReservationRepo, payments *repository.PaymentRepo, opts ...Option) *BookingService {
	if db == nil || lots == nil || spots == nil || reservations == nil || payments == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{db: db, lots: lots, spots: spots, reservations: reservations, payments: payments, opts: newOptions(opts)}
}

// Receipt is the outcome of a release.
type Receipt struct {
	Reservation model.Reservation
	Payment     model.Payment
}

// Preview is what the booking form shows before the user submits.
type Preview struct {
	Lot  *model.Lot
	Spot *model.Spot
}

type vehicleInput struct {
	Vehicle string `validate:"required,max=15"`
}

// NormalizeVehicle trims and upper-cases a registration number.
func NormalizeVehicle(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// Preview checks that userID may book in lotID and returns the spot a
// booking would get right now.
func (s *BookingService) Preview(ctx context.Context, userID, lotID uint64) (*Preview, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return nil, err
		}
		return nil, storageErr("load lot", err)
	}
	active, err := s.reservations.OngoingByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("load reservations", err)
	}
	if len(active) > 0 {
		return nil, ErrActiveReservation
	}
	spot, err := s.spots.FirstAvailable(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrSpotNotFound) {
			return &Preview{Lot: lot}, ErrNoSpotAvailable
		}
		return nil, storageErr("load spot", err)
	}
	return &Preview{Lot: lot, Spot: spot}, nil
}

// Book reserves the lowest-id free spot of lotID for userID.
//
// Checks run in this order: the lot exists, the user has no ongoing
// reservation, the vehicle number is present and at most 15 characters,
// a spot is free.  The spot is claimed with a conditional update so two
// concurrent bookings can never share it.
func (s *BookingService) Book(ctx context.Context, userID, lotID uint64, vehicle string) (*model.Reservation, error) {
	vehicle = NormalizeVehicle(vehicle)

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

	active, err := s.reservations.HasOngoingTx(ctx, tx, userID)
	if err != nil {
		return nil, storageErr("check active reservation", err)
	}
	if active {
		metrics.BookingFailures.WithLabelValues("active_reservation").Inc()
		return nil, ErrActiveReservation
	}

	if err := validation.Struct(vehicleInput{Vehicle: vehicle}); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) && verrs.Has("max") {
			return nil, ErrVehicleTooLong
		}
		return nil, ErrVehicleRequired
	}

	spotID, err := s.claimSpot(ctx, tx, lotID)
	if err != nil {
		if errors.Is(err, ErrNoSpotAvailable) {
			metrics.BookingFailures.WithLabelValues("no_spot").Inc()
			return nil, err
		}
		return nil, storageErr("claim spot", err)
	}

	res := &model.Reservation{
		UserID:        userID,
		LotID:         sql.NullInt64{Int64: int64(lot.ID), Valid: true},
		SpotID:        sql.NullInt64{Int64: int64(spotID), Valid: true},
		StartTime:     s.opts.clock(),
		PricePerHour:  lot.PricePerHour,
		VehicleNumber: vehicle,
		IsOngoing:     true,
	}
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		metrics.BookingFailures.WithLabelValues("storage").Inc()
		return nil, storageErr("insert reservation", err)
	}

	if err := tx.Commit(); err != nil {
		metrics.BookingFailures.WithLabelValues("storage").Inc()
		return nil, storageErr("commit", err)
	}
	committed = true

	metrics.Bookings.Inc()
	s.opts.invalidateStats(ctx)
	s.opts.publish(ctx, queue.ParkingEvent{
		Kind:          queue.KindBooked,
		ReservationID: res.ID,
		UserID:        userID,
		LotID:         lot.ID,
		SpotID:        spotID,
		Location:      lot.Location,
		Vehicle:       vehicle,
		StartTime:     res.StartTime,
		PricePerHour:  res.PricePerHour,
		OccurredAt:    res.StartTime,
	})
	return res, nil
}

// claimSpot walks the free spots of a lot lowest id first and claims the
// first one no other transaction has taken.
func (s *BookingService) claimSpot(ctx context.Context, tx *sqlx.Tx, lotID uint64) (uint64, error) {
	for round := 0; round < claimRounds; round++ {
		ids, err := s.spots.AvailableIDsTx(ctx, tx, lotID, claimCandidates)
		if err != nil {
			return 0, err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			ok, err := s.spots.ClaimTx(ctx, tx, id)
			if err != nil {
				return 0, err
			}
			if ok {
				return id, nil
			}
			metrics.ClaimRetries.Inc()
		}
	}
	return 0, ErrNoSpotAvailable
}

// Release ends the caller's reservation, frees its spot and records a cash
// payment of elapsed hours times the price captured at booking, rounded to
// two decimals.
func (s *BookingService) Release(ctx context.Context, userID, reservationID uint64) (*Receipt, error) {
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

	res, err := s.reservations.GetForUserTx(ctx, tx, reservationID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, err
		}
		return nil, storageErr("load reservation", err)
	}
	if !res.IsOngoing {
		return nil, ErrAlreadyReleased
	}

	end := s.opts.clock()
	amount := Cost(res.StartTime, end, res.PricePerHour)

	if err := s.reservations.CompleteTx(ctx, tx, res.ID, end); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyReleased
		}
		return nil, storageErr("complete reservation", err)
	}
	if res.SpotID.Valid {
		if err := s.spots.ReleaseTx(ctx, tx, uint64(res.SpotID.Int64)); err != nil {
			return nil, storageErr("free spot", err)
		}
	}
	pay := model.Payment{
		ReservationID: res.ID,
		Amount:        amount,
		Method:        model.PaymentMethodCash,
		PaidAt:        end,
	}
	if err := s.payments.CreateTx(ctx, tx, &pay); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyReleased
		}
		return nil, storageErr("insert payment", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit", err)
	}
	committed = true

	// lot name for the event, read after commit without a row lock
	location := ""
	if res.LotID.Valid {
		if lot, err := s.lots.GetByID(ctx, uint64(res.LotID.Int64)); err == nil {
			location = lot.Location
		}
	}

	res.IsOngoing = false
	res.EndTime = sql.NullTime{Time: end, Valid: true}

	metrics.RecordRelease(amount)
	s.opts.invalidateStats(ctx)
	ev := queue.ParkingEvent{
		Kind:          queue.KindReleased,
		ReservationID: res.ID,
		UserID:        userID,
		Location:      location,
		Vehicle:       res.VehicleNumber,
		StartTime:     res.StartTime,
		EndTime:       &end,
		PricePerHour:  res.PricePerHour,
		Amount:        amount,
		OccurredAt:    end,
	}
	if res.LotID.Valid {
		ev.LotID = uint64(res.LotID.Int64)
	}
	if res.SpotID.Valid {
		ev.SpotID = uint64(res.SpotID.Int64)
	}
	s.opts.publish(ctx, ev)

	return &Receipt{Reservation: *res, Payment: pay}, nil
}

// Cost returns elapsed hours times pricePerHour, rounded to two decimals.
// A clock that went backwards bills zero.
func Cost(start, end time.Time, pricePerHour float64) float64 {
	hours := end.Sub(start).Seconds() / 3600
	if hours < 0 {
		hours = 0
	}
	return math.Round(hours*pricePerHour*100) / 100
}
