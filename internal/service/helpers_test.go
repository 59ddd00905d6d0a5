package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/queue"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/testinfra"
	"github.com/iliyamo/parking-lot-reservation/internal/utils"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ParkingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ParkingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type memoryStats struct {
	occ         *model.Occupancy
	gets        int
	invalidated int
}

func (m *memoryStats) Get(context.Context) (model.Occupancy, bool) {
	m.gets++
	if m.occ == nil {
		return model.Occupancy{}, false
	}
	return *m.occ, true
}

func (m *memoryStats) Set(_ context.Context, occ model.Occupancy) { m.occ = &occ }

func (m *memoryStats) Invalidate(context.Context) {
	m.invalidated++
	m.occ = nil
}

type fixture struct {
	db       *sqlx.DB
	clock    *fakeClock
	events   *recordingPublisher
	stats    *memoryStats
	users    *repository.UserRepo
	spots    *repository.SpotRepo
	payments *repository.PaymentRepo
	accounts *AccountService
	booking  *BookingService
	lots     *LotService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testinfra.NewDB(t)
	f := &fixture{
		db:       db,
		clock:    newFakeClock(),
		events:   &recordingPublisher{},
		stats:    &memoryStats{},
		users:    repository.NewUserRepo(db),
		spots:    repository.NewSpotRepo(db),
		payments: repository.NewPaymentRepo(db),
	}
	opts := []Option{WithClock(f.clock.Now), WithPublisher(f.events), WithStatsCache(f.stats)}
	lots := repository.NewLotRepo(db)
	reservations := repository.NewReservationRepo(db)
	f.accounts = NewAccountService(f.users, utils.NewPasswordHasher(bcrypt.MinCost), opts...)
	f.booking = NewBookingService(db, lots, f.spots, reservations, f.payments, opts...)
	f.lots = NewLotService(db, lots, f.spots, reservations, opts...)
	return f
}

func (f *fixture) lot(t *testing.T, capacity, price string) *model.Lot {
	t.Helper()
	lot, err := f.lots.Create(context.Background(), LotInput{
		Location: "Main Campus", Address: "Pune-Bangalore Highway", PostalCode: "411045",
		Capacity: capacity, Price: price,
	})
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	return lot
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := f.accounts.SignUp(context.Background(), SignUpInput{Email: email, Name: "Driver", Password: "password1", Confirm: "password1"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return u
}
