package service

import (
	"errors"
	"fmt"
)

// Validation and state errors returned by the services.  Handlers map each
// one to the flash message shown to the user.
var (
	ErrMissingFields         = errors.New("missing required fields")
	ErrFieldTooLong          = errors.New("field too long")
	ErrPasswordTooShort      = errors.New("password too short")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrIncorrectPassword     = errors.New("incorrect password")
	ErrInvalidCapacity       = errors.New("invalid capacity")
	ErrInvalidPrice          = errors.New("invalid price")
	ErrVehicleRequired       = errors.New("vehicle number required")
	ErrVehicleTooLong        = errors.New("vehicle number too long")
	ErrActiveReservation     = errors.New("user already has an active reservation")
	ErrNoSpotAvailable       = errors.New("no spot available")
	ErrAlreadyReleased       = errors.New("reservation already released")
	ErrLotOccupied           = errors.New("lot has ongoing reservations")
	ErrCapacityBelowOccupied = errors.New("capacity below occupied spots")
)

// ErrStorage wraps unexpected persistence failures.  The cause stays
// reachable through errors.Is / errors.As for logging.
var ErrStorage = errors.New("storage failure")

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
