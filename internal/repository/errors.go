// Package repository defines data access for the parking tables and the
// sentinel errors shared by the repositories.  Handlers and services use
// errors.Is against these values to pick the message shown to the user.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrLotNotFound is returned when a lot lookup yields no rows.
var ErrLotNotFound = errors.New("lot not found")

// ErrReservationNotFound is returned when a reservation does not exist or
// does not belong to the caller.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrEmailExists is returned when a user is created with an email that is
// already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a conditional write affected no rows
// because another request changed the row first, for example two releases
// of the same reservation.
var ErrConflict = errors.New("conflict")

// isUniqueViolation reports whether err is a unique constraint failure on
// any of the supported drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	// sqlite reports SQLITE_CONSTRAINT_UNIQUE only through the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
