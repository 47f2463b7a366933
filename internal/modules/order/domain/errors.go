package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrOrderNotFound      = errors.New("order not found")
	ErrForbidden          = errors.New("not allowed to access this order")
	ErrConflict           = errors.New("order was modified concurrently")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrPaymentRejected    = errors.New("payment rejected")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrStoreUnavailable   = errors.New("order store unavailable")
)
