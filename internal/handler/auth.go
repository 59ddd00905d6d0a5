package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/service"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
	"github.com/iliyamo/parking-lot-reservation/internal/view"
)

// AuthHandler serves login, sign-up and logout.
type AuthHandler struct {
	Accounts *service.AccountService
}

// NewAuthHandler panics on a nil service.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	if accounts == nil {
		panic("nil AccountService passed to NewAuthHandler")
	}
	return &AuthHandler{Accounts: accounts}
}

var loginMessages = []message{
	{service.ErrMissingFields, session.Warning, "Please fill all fields"},
	{repository.ErrUserNotFound, session.Error, "Account with this email does not exist. Try again or create account"},
	{service.ErrIncorrectPassword, session.Error, "Incorrect password. Please try again"},
}

var signUpMessages = []message{
	{service.ErrMissingFields, session.Warning, "Please fill all fields"},
	{service.ErrFieldTooLong, session.Error, "Name or email is too long"},
	{service.ErrPasswordTooShort, session.Error, "Password must be at least 8 characters long"},
	{repository.ErrEmailExists, session.Error, "An account with this email already exists"},
	{service.ErrPasswordMismatch, session.Error, "Passwords do not match"},
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageLogin, view.AuthForm{})
}

// Login handles POST /login.  Failures re-render the form with the email
// kept.
func (h *AuthHandler) Login(c echo.Context) error {
	email := c.FormValue("email")
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Accounts.Authenticate(ctx, email, c.FormValue("password"))
	if err != nil {
		m, ok := lookup(loginMessages, err)
		if !ok {
			logFailure(c, err, "login")
			m = message{category: session.Error, text: "Login failed. Please try again."}
		}
		flash(c, m.category, m.text)
		return c.Render(http.StatusOK, view.PageLogin, view.AuthForm{Email: email})
	}

	session.From(c).Login(u.ID)
	return redirectWith(c, "/home", session.Success, "Login successful")
}

// SignUpPage handles GET /sign-up.
func (h *AuthHandler) SignUpPage(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageSignUp, view.AuthForm{})
}

// SignUp handles POST /sign-up and logs the new user in.
func (h *AuthHandler) SignUp(c echo.Context) error {
	in := service.SignUpInput{
		Email:    c.FormValue("email"),
		Name:     c.FormValue("name"),
		Password: c.FormValue("password1"),
		Confirm:  c.FormValue("password2"),
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Accounts.SignUp(ctx, in)
	if err != nil {
		m, ok := lookup(signUpMessages, err)
		if !ok {
			logFailure(c, err, "sign up")
			m = message{category: session.Error, text: "Registration failed. Please try again."}
		}
		flash(c, m.category, m.text)
		return c.Render(http.StatusOK, view.PageSignUp, view.AuthForm{Email: in.Email, Name: in.Name})
	}

	session.From(c).Login(u.ID)
	return redirectWith(c, "/home", session.Success, "Welcome, "+u.Name+"!")
}

// Logout handles GET /logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	if session.From(c).Logout() {
		return redirectWith(c, "/login", session.Success, "You have been logged out")
	}
	return redirectWith(c, "/login", session.Warning, "You are already logged out")
}
