package view

import (
	"time"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

// Page names.
const (
	PageLogin          = "login"
	PageSignUp         = "signup"
	PageProfile        = "profile"
	PageHome           = "home"
	PageLot            = "lot"
	PageBook           = "book"
	PageSummary        = "summary"
	PageHistory        = "history"
	PageAdminDashboard = "admin_dashboard"
	PageAdminUsers     = "admin_users"
	PageAdminRecords   = "admin_records"
	PageAdminStats     = "admin_stats"
	PageLotForm        = "lot_form"
	PageError          = "error"
)

// AuthForm refills the login and sign-up forms after a failed attempt.
// Passwords are never echoed.
type AuthForm struct {
	Email string
	Name  string
}

// Dashboard is the user home page.
type Dashboard struct {
	Lots    []model.LotAvailability
	Current []model.ReservationDetail
	Now     time.Time
}

// BookForm shows the spot a booking would get.
type BookForm struct {
	Lot     *model.Lot
	Spot    *model.Spot
	Vehicle string
}

// Reservations backs the summary, history and ledger pages.
type Reservations struct {
	Items []model.ReservationDetail
	Now   time.Time
}

// Spent sums the payments of the listed reservations.
func (r Reservations) Spent() float64 {
	var total float64
	for _, it := range r.Items {
		if it.PaymentAmount.Valid {
			total += it.PaymentAmount.Float64
		}
	}
	return total
}

// LotForm is the admin create and edit form.  Values stay raw strings so
// rejected input is shown back as typed.
type LotForm struct {
	ID         uint64
	Edit       bool
	Location   string
	Address    string
	PostalCode string
	Capacity   string
	Price      string
	IsShaded   bool
}

// ErrorPage is rendered by the HTTP error handler.
type ErrorPage struct {
	Code    int
	Message string
}
