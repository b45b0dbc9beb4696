package model

import "errors"

// Sentinel kinds for model validation.
var (
	ErrInvalidAllocation = errors.New("invalid allocation")
	ErrUnknownMode       = errors.New("unknown allocation mode")
)
