package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/service"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
	"github.com/iliyamo/parking-lot-reservation/internal/view"
)

func TestErrorHandler(t *testing.T) {
	r, err := view.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	e.Renderer = r

	tests := []struct {
		name     string
		method   string
		err      error
		code     int
		contains string
		hidden   string
	}{
		{"not found", http.MethodGet, echo.ErrNotFound, http.StatusNotFound, "Page not found", ""},
		{"rate limited", http.MethodGet, echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts. Please try again in 6 seconds."),
			http.StatusTooManyRequests, "Too many attempts", ""},
		{"internal", http.MethodGet, fmt.Errorf("list lots: %w", errors.New("dial tcp: refused")),
			http.StatusInternalServerError, "Something went wrong", "dial tcp"},
		{"head", http.MethodHead, echo.ErrNotFound, http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(tt.method, "/x", nil), rec)
			ErrorHandler(tt.err, c)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			body := rec.Body.String()
			if tt.contains != "" && !strings.Contains(body, tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
			if tt.hidden != "" && strings.Contains(body, tt.hidden) {
				t.Errorf("body leaks %q", tt.hidden)
			}
			if tt.method == http.MethodHead && rec.Body.Len() != 0 {
				t.Errorf("HEAD wrote a body")
			}
		})
	}
}

func TestLookupFollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("book: %w", service.ErrNoSpotAvailable)
	m, ok := lookup(bookMessages, wrapped)
	if !ok || m.text != "No parking spots available" || m.category != session.Error {
		t.Fatalf("lookup = %+v, %v", m, ok)
	}
	if _, ok := lookup(bookMessages, service.ErrStorage); ok {
		t.Fatal("storage errors must fall through to the generic message")
	}
	m, ok = lookup(releaseMessages, repository.ErrReservationNotFound)
	if !ok || m.text != "Reservation not found" {
		t.Fatalf("lookup = %+v, %v", m, ok)
	}
}
