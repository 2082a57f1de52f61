package counseling

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrSlotUnavailable = errors.New("slot is not available, pick another slot")
	ErrConflict        = errors.New("conflict")
	ErrIneligible      = errors.New("counselor is not accepting bookings")
	ErrUnsupportedMode = errors.New("counselor does not support this session mode")
	ErrNotAllowed      = errors.New("operation not allowed")
)
