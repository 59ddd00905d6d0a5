package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/queue"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
)

func TestBookAssignsLowestSpot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.lot(t, "3", "15")
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")

	first, err := f.booking.Book(ctx, alice.ID, lot.ID, "  mh12ab1234 ")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	second, err := f.booking.Book(ctx, bob.ID, lot.ID, "KA01")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if !(first.SpotID.Int64 < second.SpotID.Int64) {
		t.Fatalf("spots not assigned lowest first: %d, %d", first.SpotID.Int64, second.SpotID.Int64)
	}
	if first.VehicleNumber != "MH12AB1234" || first.PricePerHour != 15 || !first.IsOngoing {
		t.Fatalf("unexpected reservation %+v", first)
	}
	if !first.StartTime.Equal(f.clock.Now()) {
		t.Fatalf("start time %v, want %v", first.StartTime, f.clock.Now())
	}

	occ, err := f.lots.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if occ != (model.Occupancy{Total: 3, Occupied: 2, Vacant: 1}) {
		t.Fatalf("occupancy %+v", occ)
	}
	if len(f.events.events) != 2 || f.events.events[0].Kind != queue.KindBooked || f.events.events[0].Location != "Main Campus" {
		t.Fatalf("unexpected events %+v", f.events.events)
	}
}

func TestBookRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.lot(t, "1", "10")
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")

	tests := []struct {
		name    string
		user    uint64
		lot     uint64
		vehicle string
		want    error
	}{
		{"unknown lot", alice.ID, lot.ID + 100, "MH12", repository.ErrLotNotFound},
		{"missing vehicle", alice.ID, lot.ID, "   ", ErrVehicleRequired},
		{"vehicle too long", alice.ID, lot.ID, strings.Repeat("A", 16), ErrVehicleTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.booking.Book(ctx, tt.user, tt.lot, tt.vehicle); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.booking.Book(ctx, alice.ID, lot.ID, strings.Repeat("A", 15)); err != nil {
		t.Fatalf("15 characters must be accepted: %v", err)
	}
	if _, err := f.booking.Book(ctx, alice.ID, lot.ID, "MH12"); !errors.Is(err, ErrActiveReservation) {
		t.Fatalf("second booking: %v", err)
	}
	if _, err := f.booking.Book(ctx, bob.ID, lot.ID, "KA01"); !errors.Is(err, ErrNoSpotAvailable) {
		t.Fatalf("full lot: %v", err)
	}
	if _, err := f.booking.Preview(ctx, bob.ID, lot.ID); !errors.Is(err, ErrNoSpotAvailable) {
		t.Fatalf("preview of full lot: %v", err)
	}
	if _, err := f.booking.Preview(ctx, alice.ID, lot.ID); !errors.Is(err, ErrActiveReservation) {
		t.Fatalf("preview with active reservation: %v", err)
	}
}

func TestReleaseBillsSnapshotPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.lot(t, "2", "15")
	alice := f.user(t, "alice@example.com")

	res, err := f.booking.Book(ctx, alice.ID, lot.ID, "MH12")
	if err != nil {
		t.Fatal(err)
	}
	// a later price change must not affect the running session
	if _, err := f.lots.Update(ctx, lot.ID, LotInput{Location: "Main Campus", Address: "x", PostalCode: "1", Capacity: "2", Price: "99"}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(90 * time.Minute)

	receipt, err := f.booking.Release(ctx, alice.ID, res.ID)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if receipt.Payment.Amount != 22.50 || receipt.Payment.Method != model.PaymentMethodCash {
		t.Fatalf("payment %+v", receipt.Payment)
	}
	if receipt.Reservation.IsOngoing || !receipt.Reservation.EndTime.Valid {
		t.Fatalf("reservation not completed: %+v", receipt.Reservation)
	}

	stored, err := f.payments.GetByReservation(ctx, res.ID)
	if err != nil || stored.Amount != 22.50 {
		t.Fatalf("stored payment %+v err=%v", stored, err)
	}
	occ, _ := f.lots.Stats(ctx)
	if occ.Occupied != 0 {
		t.Fatalf("spot not freed: %+v", occ)
	}

	if _, err := f.booking.Release(ctx, alice.ID, res.ID); !errors.Is(err, ErrAlreadyReleased) {
		t.Fatalf("second release: %v", err)
	}

	last := f.events.events[len(f.events.events)-1]
	if last.Kind != queue.KindReleased || last.Amount != 22.50 || last.EndTime == nil {
		t.Fatalf("release event %+v", last)
	}
	if last.Location != "Main Campus" || last.LotID != lot.ID {
		t.Fatalf("release event lot %d %q", last.LotID, last.Location)
	}

	// the lot row is free again: it can be booked and edited right away
	if _, err := f.booking.Book(ctx, alice.ID, lot.ID, "MH12"); err != nil {
		t.Fatalf("book after release: %v", err)
	}
	if _, err := f.lots.Update(ctx, lot.ID, LotInput{Location: "Main Campus", Address: "x", PostalCode: "1", Capacity: "2", Price: "20"}); err != nil {
		t.Fatalf("update after release: %v", err)
	}
}

func TestReleaseOfForeignReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.lot(t, "1", "15")
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")

	res, err := f.booking.Book(ctx, alice.ID, lot.ID, "MH12")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.booking.Release(ctx, bob.ID, res.ID); !errors.Is(err, repository.ErrReservationNotFound) {
		t.Fatalf("got %v", err)
	}
	if _, err := f.booking.Release(ctx, alice.ID, res.ID+50); !errors.Is(err, repository.ErrReservationNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestCost(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		dur   time.Duration
		price float64
		want  float64
	}{
		{"ninety minutes", 90 * time.Minute, 15, 22.50},
		{"zero", 0, 15, 0},
		{"rounds to paise", 10 * time.Minute, 10, 1.67},
		{"clock skew", -time.Minute, 15, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cost(start, start.Add(tt.dur), tt.price); got != tt.want {
				t.Fatalf("Cost = %v, want %v", got, tt.want)
			}
		})
	}
}
