package middleware

// identity.go resolves the session's user id to a live user record once per
// request.  Handlers read it back with CurrentUser.

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
)

const userKey = "user"

// UserLookup is the part of the user repository LoadIdentity needs.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// LoadIdentity stores the logged in user in the echo context.  A session
// that points at a deleted user is logged out.
func LoadIdentity(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := session.From(c)
			id, ok := st.UserID()
			if !ok {
				return next(c)
			}
			ctx := c.Request().Context()
			u, err := users.GetByID(ctx, id)
			switch {
			case err == nil:
				SetCurrentUser(c, u)
			case errors.Is(err, repository.ErrUserNotFound):
				st.Logout()
			default:
				logging.Ctx(ctx).Error().Err(err).Uint64("user_id", id).Msg("load session user")
				return err
			}
			return next(c)
		}
	}
}

// CurrentUser returns the logged in user or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// SetCurrentUser stores u as the logged in user of the request.
func SetCurrentUser(c echo.Context, u *model.User) {
	c.Set(userKey, u)
}

// userID returns the current user id for rate limit keys and logs, or
// "anon".
func userID(c echo.Context) string {
	if u := CurrentUser(c); u != nil {
		return strconv.FormatUint(u.ID, 10)
	}
	return "anon"
}
