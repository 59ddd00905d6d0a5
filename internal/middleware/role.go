package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/session"
)

// RequireAuth lets logged in users through and sends everybody else to the
// login page with a warning.  It relies on LoadIdentity running first.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				session.From(c).AddFlash(session.Warning, "Please login first")
				return c.Redirect(http.StatusFound, "/login")
			}
			return next(c)
		}
	}
}

// RequireAdmin lets administrators through.  Anonymous visitors go to the
// login page, regular users back to their dashboard.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil {
				session.From(c).AddFlash(session.Warning, "Please login first")
				return c.Redirect(http.StatusFound, "/login")
			}
			if !u.IsAdmin {
				session.From(c).AddFlash(session.Warning, "You are not allowed to access this page")
				return c.Redirect(http.StatusFound, "/home")
			}
			return next(c)
		}
	}
}

// RedirectIfAuthenticated keeps logged in users off the login and sign-up
// pages.
func RedirectIfAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) != nil {
				session.From(c).AddFlash(session.Info, "Already logged in")
				return c.Redirect(http.StatusFound, "/home")
			}
			return next(c)
		}
	}
}
