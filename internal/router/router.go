package router // router wires middleware, handlers and guards onto echo

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/parking-lot-reservation/internal/config"
	"github.com/iliyamo/parking-lot-reservation/internal/handler"
	"github.com/iliyamo/parking-lot-reservation/internal/middleware"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
)

// Deps is everything the routes need.  Redis may be nil, which turns rate
// limiting off.
type Deps struct {
	Renderer  echo.Renderer
	Sessions  *session.Manager
	Users     middleware.UserLookup
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Admin     *handler.AdminHandler
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

// New builds the echo instance with the global middleware chain and all
// routes registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = d.Renderer
	e.HTTPErrorHandler = handler.ErrorHandler

	// Order matters: the access log sees the final status, the session is
	// loaded before the identity that reads it.
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog())
	e.Use(d.Sessions.Middleware())
	e.Use(middleware.LoadIdentity(d.Users))

	RegisterRoutes(e)
	RegisterAuth(e, d.Auth, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	RegisterUser(e, d.User, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	RegisterAdmin(e, d.Admin)
	return e
}

// RegisterRoutes registers the operational endpoints that need no session.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Guards are attached per route instead of through e.Group(prefix, m...):
// a group with middleware claims every unmatched path under its prefix,
// and all groups here share the empty prefix.

// RegisterAuth registers login, sign-up and logout.  The login and sign-up
// pages are for anonymous visitors only; their POSTs go through limit.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	guest := middleware.RedirectIfAuthenticated()
	e.GET("/login", a.LoginPage, guest)
	e.POST("/login", a.Login, guest, limit)
	e.GET("/sign-up", a.SignUpPage, guest)
	e.POST("/sign-up", a.SignUp, guest, limit)

	e.GET("/logout", a.Logout)
}

// RegisterUser registers the pages of logged in users.
func RegisterUser(e *echo.Echo, u *handler.UserHandler, limit echo.MiddlewareFunc) {
	auth := middleware.RequireAuth()
	e.GET("/", u.Home, auth)
	e.GET("/home", u.Home, auth)
	e.GET("/profile", u.ProfilePage, auth)
	e.POST("/profile", u.UpdateProfile, auth)
	e.GET("/lot/:lot_id", u.Lot, auth)
	e.GET("/book-spot/:lot_id", u.BookPage, auth)
	e.POST("/book-spot/:lot_id", u.Book, auth, limit)
	e.GET("/release-spot/:reserve_id", u.Release, auth)
	e.GET("/user/summary", u.Summary, auth)
	e.GET("/user/history", u.History, auth)
}

// RegisterAdmin registers the administrator pages.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler) {
	admin := middleware.RequireAdmin()
	e.GET("/admin", a.Dashboard, admin)
	e.GET("/admin/users", a.ListUsers, admin)
	e.GET("/admin/view-parking-records", a.Records, admin)
	e.GET("/admin-stats", a.Stats, admin)
	e.GET("/admin/lot/add-lot", a.NewLotPage, admin)
	e.POST("/admin/lot/add-lot", a.CreateLot, admin)
	e.GET("/admin/lot/:lot_id/edit-lot", a.EditLotPage, admin)
	e.POST("/admin/lot/:lot_id/edit-lot", a.UpdateLot, admin)
	e.GET("/admin/lot/:lot_id/delete-lot", a.DeleteLot, admin)
}
