package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrEmptyEventID  = errors.New("event id must not be empty")
	ErrClosed        = errors.New("store closed")
	ErrUnknownDriver = errors.New("unknown store driver")
)
