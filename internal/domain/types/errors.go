package types

import "errors"

// Sentinel kinds shared by the service and its transports.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("persistence queue full")
	ErrInvalidRequest = errors.New("invalid request")
	ErrTooManySlots   = errors.New("slot count exceeds limit")
)
