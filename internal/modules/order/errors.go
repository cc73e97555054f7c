package order

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("order not found")
	ErrForbidden          = errors.New("order belongs to another user")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidState       = errors.New("operation not allowed in current order state")
	ErrReservationExpired = errors.New("stock reservation expired")
	ErrConflict           = errors.New("order was modified concurrently")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrVariantUnavailable = errors.New("variant unavailable")
	ErrPaymentNotVerified = errors.New("payment signature verification failed")
)
