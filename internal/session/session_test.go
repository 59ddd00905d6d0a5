package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestServer() (*echo.Echo, *Manager) {
	e := echo.New()
	m := NewManager(Options{Secret: "0123456789abcdef0123456789abcdef", MaxAge: time.Hour})
	e.Use(m.Middleware())
	e.GET("/login", func(c echo.Context) error {
		st := From(c)
		st.Login(42)
		st.AddFlash(Success, "Login successful")
		return c.Redirect(http.StatusFound, "/home")
	})
	e.GET("/home", func(c echo.Context) error {
		st := From(c)
		id, ok := st.UserID()
		if !ok {
			return c.String(http.StatusUnauthorized, "anon")
		}
		msg := ""
		for _, f := range st.Flashes() {
			msg += f.Category + ":" + f.Message
		}
		return c.String(http.StatusOK, msg+"|"+string(rune('0'+id%10)))
	})
	e.GET("/logout", func(c echo.Context) error {
		if From(c).Logout() {
			return c.String(http.StatusOK, "bye")
		}
		return c.String(http.StatusOK, "already")
	})
	return e, m
}

func do(e *echo.Echo, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoginFlashRoundTrip(t *testing.T) {
	e, _ := newTestServer()

	rec := do(e, "/login", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cookieName || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	rec = do(e, "/home", cookies)
	if rec.Code != http.StatusOK || rec.Body.String() != "success:Login successful|2" {
		t.Fatalf("home: %d %q", rec.Code, rec.Body.String())
	}
	// flashes are consumed, so the response carries an updated cookie
	next := rec.Result().Cookies()
	if len(next) != 1 {
		t.Fatalf("expected refreshed cookie, got %+v", next)
	}
	rec = do(e, "/home", next)
	if rec.Body.String() != "|2" {
		t.Fatalf("flash shown twice: %q", rec.Body.String())
	}
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	e, _ := newTestServer()
	rec := do(e, "/home", []*http.Cookie{{Name: cookieName, Value: "forged"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	e, _ := newTestServer()
	if rec := do(e, "/logout", nil); rec.Body.String() != "already" {
		t.Fatalf("anonymous logout: %q", rec.Body.String())
	}
	cookies := do(e, "/login", nil).Result().Cookies()
	if rec := do(e, "/logout", cookies); rec.Body.String() != "bye" {
		t.Fatalf("logout: %q", rec.Body.String())
	}
}
