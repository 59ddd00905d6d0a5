package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/testinfra"
)

func seedLot(t *testing.T, db *sqlx.DB, capacity int) *model.Lot {
	t.Helper()
	ctx := context.Background()
	lot := &model.Lot{Location: "North", Address: "1 Road", PostalCode: "411045", PricePerHour: 15, Capacity: capacity}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewLotRepo(db).CreateTx(ctx, tx, lot); err != nil {
		t.Fatal(err)
	}
	if err := NewSpotRepo(db).CreateBulkTx(ctx, tx, lot.ID, capacity); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	return lot
}

func seedUser(t *testing.T, db *sqlx.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", Name: "Test"}
	if err := NewUserRepo(db).Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestUserRepoCreateAndLookup(t *testing.T) {
	db := testinfra.NewDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	u := seedUser(t, db, "  Alice@Example.COM ")
	if u.ID == 0 || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}

	got, err := repo.GetByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID || got.IsAdmin {
		t.Fatalf("got %+v", got)
	}

	dup := &model.User{Email: "alice@example.com", PasswordHash: "y", Name: "Dup"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := repo.SetAdmin(ctx, u.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateProfile(ctx, u.ID, "Alice", "hash2"); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.GetByID(ctx, u.ID)
	if !got.IsAdmin || got.Name != "Alice" || got.PasswordHash != "hash2" {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestLotAvailabilityCounts(t *testing.T) {
	db := testinfra.NewDB(t)
	ctx := context.Background()
	lot := seedLot(t, db, 3)
	empty := seedLot(t, db, 0)

	lots, err := NewLotRepo(db).ListWithAvailability(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(lots) != 2 {
		t.Fatalf("want 2 lots, got %d", len(lots))
	}
	if lots[0].ID != lot.ID || lots[0].TotalSpots != 3 || lots[0].AvailableSpots != 3 {
		t.Fatalf("unexpected availability %+v", lots[0])
	}
	if lots[1].ID != empty.ID || lots[1].TotalSpots != 0 || lots[1].AvailableSpots != 0 {
		t.Fatalf("unexpected availability %+v", lots[1])
	}

	if _, err := NewLotRepo(db).GetWithAvailability(ctx, 4242); !errors.Is(err, ErrLotNotFound) {
		t.Fatalf("expected ErrLotNotFound, got %v", err)
	}
}

func TestSpotClaimIsConditional(t *testing.T) {
	db := testinfra.NewDB(t)
	ctx := context.Background()
	lot := seedLot(t, db, 2)
	spots := NewSpotRepo(db)

	first, err := spots.FirstAvailable(ctx, lot.ID)
	if err != nil {
		t.Fatal(err)
	}

	tx, _ := db.BeginTxx(ctx, nil)
	ok, err := spots.ClaimTx(ctx, tx, first.ID)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = spots.ClaimTx(ctx, tx, first.ID)
	if err != nil || ok {
		t.Fatalf("second claim must lose: ok=%v err=%v", ok, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	next, err := spots.FirstAvailable(ctx, lot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if next.ID <= first.ID {
		t.Fatalf("expected a higher spot than %d, got %d", first.ID, next.ID)
	}

	occ, err := spots.Occupancy(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if occ != (model.Occupancy{Total: 2, Occupied: 1, Vacant: 1}) {
		t.Fatalf("unexpected occupancy %+v", occ)
	}
}

func TestDeleteAvailableSkipsOccupied(t *testing.T) {
	db := testinfra.NewDB(t)
	ctx := context.Background()
	lot := seedLot(t, db, 3)
	spots := NewSpotRepo(db)

	list, _ := spots.ListByLot(ctx, lot.ID)
	tx, _ := db.BeginTxx(ctx, nil)
	// occupy the highest spot; shrinking must remove the other two instead
	if ok, err := spots.ClaimTx(ctx, tx, list[2].ID); err != nil || !ok {
		t.Fatalf("claim: %v %v", ok, err)
	}
	n, err := spots.DeleteAvailableTx(ctx, tx, lot.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("deleted %d spots, want 2", n)
	}
	total, avail, err := spots.CountByLotTx(ctx, tx, lot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || avail != 0 {
		t.Fatalf("total=%d available=%d", total, avail)
	}
	_ = tx.Rollback()
}

func TestReservationLifecycle(t *testing.T) {
	db := testinfra.NewDB(t)
	ctx := context.Background()
	lot := seedLot(t, db, 1)
	user := seedUser(t, db, "bob@example.com")
	spots := NewSpotRepo(db)
	reservations := NewReservationRepo(db)
	payments := NewPaymentRepo(db)
	spot, _ := spots.FirstAvailable(ctx, lot.ID)

	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	res := &model.Reservation{
		UserID:        user.ID,
		LotID:         sql.NullInt64{Int64: int64(lot.ID), Valid: true},
		SpotID:        sql.NullInt64{Int64: int64(spot.ID), Valid: true},
		StartTime:     start,
		PricePerHour:  15,
		VehicleNumber: "MH12AB1234",
		IsOngoing:     true,
	}
	tx, _ := db.BeginTxx(ctx, nil)
	if err := reservations.CreateTx(ctx, tx, res); err != nil {
		t.Fatal(err)
	}
	if ok, _ := reservations.HasOngoingTx(ctx, tx, user.ID); !ok {
		t.Fatal("expected ongoing reservation")
	}
	if _, err := reservations.GetForUserTx(ctx, tx, res.ID, user.ID+1); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("foreign user must not see the reservation: %v", err)
	}
	end := start.Add(90 * time.Minute)
	if err := reservations.CompleteTx(ctx, tx, res.ID, end); err != nil {
		t.Fatal(err)
	}
	if err := reservations.CompleteTx(ctx, tx, res.ID, end); !errors.Is(err, ErrConflict) {
		t.Fatalf("second completion: %v", err)
	}
	pay := &model.Payment{ReservationID: res.ID, Amount: 22.5, Method: model.PaymentMethodCash, PaidAt: end}
	if err := payments.CreateTx(ctx, tx, pay); err != nil {
		t.Fatal(err)
	}
	if err := payments.CreateTx(ctx, tx, &model.Payment{ReservationID: res.ID, Amount: 1, Method: model.PaymentMethodCash, PaidAt: end}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate payment: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	history, err := reservations.ListCompletedByUser(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("want 1 history row, got %d", len(history))
	}
	h := history[0]
	if !h.PaymentAmount.Valid || h.PaymentAmount.Float64 != 22.5 || h.LotLabel() != "North" {
		t.Fatalf("unexpected history row %+v", h)
	}
	if got := h.Duration(time.Now()); got != 90*time.Minute {
		t.Fatalf("duration %v", got)
	}
}

func TestDeletingLotKeepsHistory(t *testing.T) {
	db := testinfra.NewDB(t)
	ctx := context.Background()
	lot := seedLot(t, db, 1)
	user := seedUser(t, db, "carol@example.com")

	tx, _ := db.BeginTxx(ctx, nil)
	res := &model.Reservation{
		UserID:        user.ID,
		LotID:         sql.NullInt64{Int64: int64(lot.ID), Valid: true},
		StartTime:     time.Now().UTC(),
		EndTime:       sql.NullTime{Time: time.Now().UTC(), Valid: true},
		PricePerHour:  15,
		VehicleNumber: "KA01",
	}
	if err := NewReservationRepo(db).CreateTx(ctx, tx, res); err != nil {
		t.Fatal(err)
	}
	if err := NewLotRepo(db).DeleteTx(ctx, tx, lot.ID); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	rows, err := NewReservationRepo(db).ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].LotID.Valid || rows[0].LotLabel() != "Lot removed" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if spots, _ := NewSpotRepo(db).ListByLot(ctx, lot.ID); len(spots) != 0 {
		t.Fatalf("spots should cascade, %d left", len(spots))
	}
}
