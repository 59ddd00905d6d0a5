package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/middleware"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/service"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
	"github.com/iliyamo/parking-lot-reservation/internal/view"
)

// UserHandler serves the pages of regular users: dashboard, profile,
// booking and the reservation history.  RequireAuth runs in front of every
// route.
type UserHandler struct {
	Lots         *service.LotService
	Booking      *service.BookingService
	Accounts     *service.AccountService
	Reservations *repository.ReservationRepo
	Now          func() time.Time
}

// NewUserHandler panics if a dependency is missing.
func NewUserHandler(lots *service.LotService, booking *service.BookingService, accounts *service.AccountService,
	reservations *repository.ReservationRepo) *UserHandler {
	if lots == nil || booking == nil || accounts == nil || reservations == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{
		Lots:         lots,
		Booking:      booking,
		Accounts:     accounts,
		Reservations: reservations,
		Now:          time.Now,
	}
}

const (
	msgBookFailed    = "Error booking parking spot. Please try again."
	msgReleaseFailed = "Error releasing parking spot. Please try again."
)

var profileMessages = []message{
	{service.ErrMissingFields, session.Warning, "Please fill all details"},
	{service.ErrFieldTooLong, session.Error, "Name is too long"},
	{service.ErrIncorrectPassword, session.Error, "Incorrect password"},
	{service.ErrPasswordTooShort, session.Error, "Password must be at least 8 characters long"},
	{service.ErrPasswordMismatch, session.Error, "Passwords do not match"},
}

// previewMessages apply to the booking form.  Each one sends the user back
// to the dashboard.
var previewMessages = []message{
	{repository.ErrLotNotFound, session.Error, "Parking lot not found"},
	{service.ErrActiveReservation, session.Warning, "You already have an active parking reservation"},
	{service.ErrNoSpotAvailable, session.Error, "No parking spots available in this lot"},
}

var bookMessages = []message{
	{repository.ErrLotNotFound, session.Error, "Parking lot not found"},
	{service.ErrActiveReservation, session.Warning, "You already have an active parking reservation"},
	{service.ErrNoSpotAvailable, session.Error, "No parking spots available"},
}

// bookFormMessages keep the user on the form.
var bookFormMessages = []message{
	{service.ErrVehicleRequired, session.Warning, "Please enter vehicle number"},
	{service.ErrVehicleTooLong, session.Warning, "Vehicle number can be at most 15 characters"},
}

var releaseMessages = []message{
	{repository.ErrReservationNotFound, session.Error, "Reservation not found"},
	{service.ErrAlreadyReleased, session.Warning, "This reservation is already completed"},
}

// Home handles GET / and /home.  Administrators have their own dashboard.
func (h *UserHandler) Home(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u.IsAdmin {
		return c.Redirect(http.StatusFound, "/admin")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	lots, err := h.Lots.List(ctx)
	if err != nil {
		return err
	}
	current, err := h.Reservations.OngoingByUser(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PageHome, view.Dashboard{Lots: lots, Current: current, Now: h.Now()})
}

// ProfilePage handles GET /profile.
func (h *UserHandler) ProfilePage(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageProfile, nil)
}

// UpdateProfile handles POST /profile.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	u := middleware.CurrentUser(c)
	in := service.ProfileInput{
		Name:     c.FormValue("name"),
		Current:  c.FormValue("cpassword"),
		Password: c.FormValue("password1"),
		Confirm:  c.FormValue("password2"),
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	updated, err := h.Accounts.UpdateProfile(ctx, u.ID, in)
	if err != nil {
		m, ok := lookup(profileMessages, err)
		if !ok {
			logFailure(c, err, "update profile")
			m = message{category: session.Error, text: "Profile update failed. Please try again."}
		}
		flash(c, m.category, m.text)
		return c.Render(http.StatusOK, view.PageProfile, nil)
	}
	middleware.SetCurrentUser(c, updated)
	return redirectWith(c, "/profile", session.Success, "Successfully updated password")
}

// Lot handles GET /lot/:lot_id.
func (h *UserHandler) Lot(c echo.Context) error {
	lotID, err := pathID(c, "lot_id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	detail, err := h.Lots.Detail(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return redirectWith(c, "/home", session.Error, "Lot not found")
		}
		return err
	}
	return c.Render(http.StatusOK, view.PageLot, detail)
}

// BookPage handles GET /book-spot/:lot_id.
func (h *UserHandler) BookPage(c echo.Context) error {
	lotID, err := pathID(c, "lot_id")
	if err != nil {
		return err
	}
	return h.renderBookForm(c, lotID, "")
}

// renderBookForm shows the booking form, or redirects home with a flash
// when the user cannot book in the lot.
func (h *UserHandler) renderBookForm(c echo.Context, lotID uint64, vehicle string) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Booking.Preview(ctx, middleware.CurrentUser(c).ID, lotID)
	if err != nil {
		m, ok := lookup(previewMessages, err)
		if !ok {
			logFailure(c, err, "booking preview")
			m = message{category: session.Error, text: msgBookFailed}
		}
		return redirectWith(c, "/home", m.category, m.text)
	}
	return c.Render(http.StatusOK, view.PageBook, view.BookForm{Lot: p.Lot, Spot: p.Spot, Vehicle: vehicle})
}

// Book handles POST /book-spot/:lot_id.
func (h *UserHandler) Book(c echo.Context) error {
	lotID, err := pathID(c, "lot_id")
	if err != nil {
		return err
	}
	vehicle := c.FormValue("vno")
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Booking.Book(ctx, middleware.CurrentUser(c).ID, lotID, vehicle)
	if err == nil {
		return redirectWith(c, "/home", session.Success,
			fmt.Sprintf("Parking spot booked successfully! Spot #%d", res.SpotID.Int64))
	}
	if m, ok := lookup(bookMessages, err); ok {
		return redirectWith(c, "/home", m.category, m.text)
	}
	m, ok := lookup(bookFormMessages, err)
	if !ok {
		logFailure(c, err, "book spot")
		m = message{category: session.Error, text: msgBookFailed}
	}
	flash(c, m.category, m.text)
	return h.renderBookForm(c, lotID, vehicle)
}

// Release handles GET /release-spot/:reserve_id.
func (h *UserHandler) Release(c echo.Context) error {
	resID, err := pathID(c, "reserve_id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	receipt, err := h.Booking.Release(ctx, middleware.CurrentUser(c).ID, resID)
	if err != nil {
		m, ok := lookup(releaseMessages, err)
		if !ok {
			logFailure(c, err, "release spot")
			m = message{category: session.Error, text: msgReleaseFailed}
		}
		return redirectWith(c, "/home", m.category, m.text)
	}
	return redirectWith(c, "/home", session.Success,
		fmt.Sprintf("Parking released successfully! Total cost: ₹%.2f", receipt.Payment.Amount))
}

// Summary handles GET /user/summary: every reservation with its payment.
func (h *UserHandler) Summary(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Reservations.ListByUser(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PageSummary, view.Reservations{Items: items, Now: h.Now()})
}

// History handles GET /user/history: completed, paid reservations.
func (h *UserHandler) History(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Reservations.ListCompletedByUser(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PageHistory, view.Reservations{Items: items, Now: h.Now()})
}
