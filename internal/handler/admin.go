package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/service"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
	"github.com/iliyamo/parking-lot-reservation/internal/view"
)

// AdminHandler serves the administrator pages.  RequireAdmin runs in
// front of every route.
type AdminHandler struct {
	Lots         *service.LotService
	Users        *repository.UserRepo
	Reservations *repository.ReservationRepo
}

// NewAdminHandler panics if a dependency is missing.
func NewAdminHandler(lots *service.LotService, users *repository.UserRepo, reservations *repository.ReservationRepo) *AdminHandler {
	if lots == nil || users == nil || reservations == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Lots: lots, Users: users, Reservations: reservations}
}

// lotFormMessages keep the admin on the lot form.
var lotFormMessages = []message{
	{service.ErrMissingFields, session.Warning, "Please fill out all fields"},
	{service.ErrFieldTooLong, session.Error, "Location must be at most 30 characters, address 150 and pin code 10"},
	{service.ErrInvalidCapacity, session.Error, fmt.Sprintf("Number of spots must be a whole number between 1 and %d", service.MaxLotCapacity)},
	{service.ErrInvalidPrice, session.Error, "Price per hour must be a number of at least 0"},
	{service.ErrCapacityBelowOccupied, session.Error, "Cannot remove occupied spots. Release them or keep more spots"},
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	lots, err := h.Lots.List(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PageAdminDashboard, lots)
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PageAdminUsers, users)
}

// Records handles GET /admin/view-parking-records.
func (h *AdminHandler) Records(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Reservations.ListAll(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PageAdminRecords, view.Reservations{Items: items})
}

// Stats handles GET /admin-stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	occ, err := h.Lots.Stats(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.PageAdminStats, occ)
}

// NewLotPage handles GET /admin/lot/add-lot.
func (h *AdminHandler) NewLotPage(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageLotForm, view.LotForm{})
}

// CreateLot handles POST /admin/lot/add-lot.
func (h *AdminHandler) CreateLot(c echo.Context) error {
	in := lotInput(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Lots.Create(ctx, in); err != nil {
		return h.lotFormError(c, err, formFromInput(0, in))
	}
	return redirectWith(c, "/admin", session.Success, "Parking lot created successfully!")
}

// EditLotPage handles GET /admin/lot/:lot_id/edit-lot.
func (h *AdminHandler) EditLotPage(c echo.Context) error {
	lotID, err := pathID(c, "lot_id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	lot, err := h.Lots.Get(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return redirectWith(c, "/admin", session.Error, "Lot not found")
		}
		return err
	}
	return c.Render(http.StatusOK, view.PageLotForm, formFromLot(lot))
}

// UpdateLot handles POST /admin/lot/:lot_id/edit-lot.
func (h *AdminHandler) UpdateLot(c echo.Context) error {
	lotID, err := pathID(c, "lot_id")
	if err != nil {
		return err
	}
	in := lotInput(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Lots.Update(ctx, lotID, in); err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return redirectWith(c, "/admin", session.Error, "Lot not found")
		}
		return h.lotFormError(c, err, formFromInput(lotID, in))
	}
	return redirectWith(c, "/admin", session.Success, "Parking lot details updated successfully!")
}

// DeleteLot handles GET /admin/lot/:lot_id/delete-lot.
func (h *AdminHandler) DeleteLot(c echo.Context) error {
	lotID, err := pathID(c, "lot_id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	switch err := h.Lots.Delete(ctx, lotID); {
	case err == nil:
		return redirectWith(c, "/admin", session.Success, fmt.Sprintf("Lot #%d deleted successfully!", lotID))
	case errors.Is(err, repository.ErrLotNotFound):
		return redirectWith(c, "/admin", session.Error, "Lot not found")
	case errors.Is(err, service.ErrLotOccupied):
		return redirectWith(c, "/admin", session.Error, "Cannot delete a lot that has been occupied")
	default:
		logFailure(c, err, "delete lot")
		return redirectWith(c, "/admin", session.Error, "Error deleting parking lot. Please try again.")
	}
}

// lotFormError re-renders the lot form with the flash for err.
func (h *AdminHandler) lotFormError(c echo.Context, err error, form view.LotForm) error {
	m, ok := lookup(lotFormMessages, err)
	if !ok {
		logFailure(c, err, "save lot")
		m = message{category: session.Error, text: "Error saving parking lot. Please try again."}
	}
	flash(c, m.category, m.text)
	return c.Render(http.StatusOK, view.PageLotForm, form)
}

// lotInput reads the lot form.  The shaded checkbox counts when present.
func lotInput(c echo.Context) service.LotInput {
	in := service.LotInput{
		Location:   c.FormValue("prime_loc"),
		Address:    c.FormValue("address"),
		PostalCode: c.FormValue("pin"),
		Capacity:   c.FormValue("max_spots"),
		Price:      c.FormValue("price"),
	}
	if form, err := c.FormParams(); err == nil {
		_, in.IsShaded = form["is_shaded"]
	}
	return in
}

func formFromInput(id uint64, in service.LotInput) view.LotForm {
	return view.LotForm{
		ID:         id,
		Edit:       id != 0,
		Location:   in.Location,
		Address:    in.Address,
		PostalCode: in.PostalCode,
		Capacity:   in.Capacity,
		Price:      in.Price,
		IsShaded:   in.IsShaded,
	}
}

func formFromLot(l *model.Lot) view.LotForm {
	return view.LotForm{
		ID:         l.ID,
		Edit:       true,
		Location:   l.Location,
		Address:    l.Address,
		PostalCode: l.PostalCode,
		Capacity:   strconv.Itoa(l.Capacity),
		Price:      strconv.FormatFloat(l.PricePerHour, 'f', -1, 64),
		IsShaded:   l.IsShaded,
	}
}
