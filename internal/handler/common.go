package handler // handler holds the HTTP handlers of the web pages

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/middleware"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
)

// dbTimeout bounds the database work of one request.
const dbTimeout = 5 * time.Second

// requestCtx derives the context handlers pass to the services.
func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses a numeric path parameter.  Anything else is a 404, like an
// unmatched route.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.ErrNotFound
	}
	return id, nil
}

func flash(c echo.Context, category, message string) {
	session.From(c).AddFlash(category, message)
}

// redirectWith queues a flash and redirects with 302.
func redirectWith(c echo.Context, path, category, message string) error {
	flash(c, category, message)
	return c.Redirect(http.StatusFound, path)
}

// logFailure records an unexpected error with the request id, route and
// user.  The page only ever shows a generic message.
func logFailure(c echo.Context, err error, msg string) {
	uid := uint64(0)
	if u := middleware.CurrentUser(c); u != nil {
		uid = u.ID
	}
	logging.Ctx(c.Request().Context()).Error().
		Err(err).
		Str("route", c.Path()).
		Uint64("user_id", uid).
		Msg(msg)
}

// message is one entry of an error to flash table.
type message struct {
	target   error
	category string
	text     string
}

// lookup returns the first entry matching err.
func lookup(table []message, err error) (message, bool) {
	for _, m := range table {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return message{}, false
}
