// Package session keeps the logged-in user id and flash messages in a
// signed cookie.
package session

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
)

const (
	cookieName = "parking_session"
	ctxKey     = "session"
	userIDKey  = "user_id"
)

// Flash categories understood by the layout.
const (
	Success = "success"
	Error   = "error"
	Warning = "warning"
	Info    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Options configure the cookie.
type Options struct {
	Secret string
	MaxAge time.Duration
	Secure bool // set the Secure attribute, for HTTPS deployments
}

// Manager loads and saves sessions.
type Manager struct {
	store sessions.Store
}

// NewManager returns a manager backed by a gorilla CookieStore.
func NewManager(opts Options) *Manager {
	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// Middleware attaches the session to the echo context and writes it back
// right before the response header goes out, if it changed.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// a tampered or stale cookie yields a fresh session and an error
			s, _ := m.store.Get(c.Request(), cookieName)
			st := &State{s: s}
			c.Set(ctxKey, st)
			c.Response().Before(func() {
				if st.dirty {
					if err := s.Save(c.Request(), c.Response()); err != nil {
						logging.Ctx(c.Request().Context()).Error().Err(err).Msg("session save")
					}
				}
			})
			return next(c)
		}
	}
}

// From returns the session of the current request.  Outside the
// middleware it returns a detached session that is never saved.
func From(c echo.Context) *State {
	if st, ok := c.Get(ctxKey).(*State); ok {
		return st
	}
	st := &State{s: sessions.NewSession(nil, cookieName)}
	c.Set(ctxKey, st)
	return st
}

// State is the session of one request.
type State struct {
	s     *sessions.Session
	dirty bool
}

// UserID returns the logged in user id.
func (st *State) UserID() (uint64, bool) {
	id, ok := st.s.Values[userIDKey].(uint64)
	return id, ok && id > 0
}

// Login replaces the user id.  Pending flashes survive.
func (st *State) Login(userID uint64) {
	st.s.Values[userIDKey] = userID
	st.dirty = true
}

// Logout forgets the user and reports whether one was logged in.
func (st *State) Logout() bool {
	_, ok := st.UserID()
	delete(st.s.Values, userIDKey)
	st.dirty = true
	return ok
}

// AddFlash queues a message for the next page.
func (st *State) AddFlash(category, message string) {
	st.s.AddFlash(Flash{Category: category, Message: message})
	st.dirty = true
}

// Flashes returns and clears the queued messages.
func (st *State) Flashes() []Flash {
	raw := st.s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	st.dirty = true
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}
