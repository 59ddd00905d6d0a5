package view

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/middleware"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
)

func newContext(t *testing.T, u *model.User) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if u != nil {
		middleware.SetCurrentUser(c, u)
	}
	return c
}

func TestAllPagesParse(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{
		PageLogin, PageSignUp, PageProfile, PageHome, PageLot, PageBook, PageSummary,
		PageHistory, PageAdminDashboard, PageAdminUsers, PageAdminRecords, PageAdminStats,
		PageLotForm, PageError,
	} {
		if !r.Has(name) {
			t.Errorf("page %q missing", name)
		}
	}
}

func TestRenderShowsFlashesOnce(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := newContext(t, nil)
	session.From(c).AddFlash(session.Error, "Incorrect password. Please try again")

	var buf bytes.Buffer
	if err := r.Render(&buf, PageLogin, AuthForm{Email: "a@b.c"}, c); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `class="flash danger"`) || !strings.Contains(out, "Incorrect password") {
		t.Errorf("flash not rendered:\n%s", out)
	}
	if !strings.Contains(out, `value="a@b.c"`) {
		t.Errorf("email not refilled")
	}

	buf.Reset()
	if err := r.Render(&buf, PageLogin, nil, c); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "Incorrect password") {
		t.Errorf("flash shown twice")
	}
}

func TestRenderNavigationByRole(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tests := []struct {
		name    string
		user    *model.User
		want    string
		notWant string
	}{
		{"anonymous", nil, `href="/login"`, `href="/logout"`},
		{"user", &model.User{ID: 2, Name: "Asha"}, `href="/user/summary"`, `href="/admin/users"`},
		{"admin", &model.User{ID: 1, Name: "Admin", IsAdmin: true}, `href="/admin/users"`, `href="/user/summary"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := r.Render(&buf, PageError, ErrorPage{Code: 404, Message: "Not Found"}, newContext(t, tt.user)); err != nil {
				t.Fatalf("Render: %v", err)
			}
			out := buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("missing %s", tt.want)
			}
			if strings.Contains(out, tt.notWant) {
				t.Errorf("unexpected %s", tt.notWant)
			}
		})
	}
}

func TestRenderReservationPages(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	done := model.ReservationDetail{
		Reservation: model.Reservation{
			ID: 7, UserID: 2, StartTime: start,
			EndTime:       sql.NullTime{Time: start.Add(90 * time.Minute), Valid: true},
			PricePerHour:  15, VehicleNumber: "MH12AB1234",
		},
		UserEmail:     "asha@example.com",
		UserName:      "Asha",
		PaymentAmount: sql.NullFloat64{Float64: 22.5, Valid: true},
		PaymentMethod: sql.NullString{String: model.PaymentMethodCash, Valid: true},
		PaidAt:        sql.NullTime{Time: start.Add(90 * time.Minute), Valid: true},
	}
	data := Reservations{Items: []model.ReservationDetail{done}, Now: start.Add(2 * time.Hour)}
	u := &model.User{ID: 2, Name: "Asha"}

	for _, page := range []string{PageSummary, PageHistory, PageAdminRecords} {
		var buf bytes.Buffer
		if err := r.Render(&buf, page, data, newContext(t, u)); err != nil {
			t.Fatalf("Render %s: %v", page, err)
		}
		out := buf.String()
		if !strings.Contains(out, "22.50") {
			t.Errorf("%s: amount missing", page)
		}
		if !strings.Contains(out, "Lot removed") {
			t.Errorf("%s: removed lot placeholder missing", page)
		}
		if !strings.Contains(out, "1.50") {
			t.Errorf("%s: hours missing", page)
		}
	}
}

func TestRenderStatsBars(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	occ := model.Occupancy{Total: 80, Occupied: 20, Vacant: 60}
	if err := r.Render(&buf, PageAdminStats, occ, newContext(t, &model.User{ID: 1, IsAdmin: true})); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "width: 25%") || !strings.Contains(out, "width: 75%") {
		t.Errorf("bar widths wrong:\n%s", out)
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Render(&bytes.Buffer{}, "nope", nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
