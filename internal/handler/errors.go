package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/view"
)

// ErrorHandler renders the error page for errors that reach echo: unknown
// routes, wrong methods, rate limited requests and unexpected failures.
// Internal details never reach the page.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch code {
		case http.StatusNotFound:
			msg = "Page not found"
		case http.StatusMethodNotAllowed:
			msg = "Method not allowed"
		case http.StatusInternalServerError:
		default:
			msg = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError {
		logging.Ctx(c.Request().Context()).Error().Err(err).Str("route", c.Path()).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.Render(code, view.PageError, view.ErrorPage{Code: code, Message: msg})
	}
	if err != nil {
		logging.Ctx(c.Request().Context()).Error().Err(err).Msg("render error page")
		_ = c.String(code, msg)
	}
}
