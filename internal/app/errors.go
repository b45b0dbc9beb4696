package service

import "github.com/okian/pegsync/internal/domain/types"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = types.ErrNotStarted
	ErrBackpressure   = types.ErrBackpressure
	ErrInvalidRequest = types.ErrInvalidRequest
	ErrTooManySlots   = types.ErrTooManySlots
)
