package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/pegsync/internal/domain/allocation"
	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/internal/domain/types"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = types.ErrBackpressure
)

// Error ties a failed operation to the kind it is reported as.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind reports op as failing with kind.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind reports op as failing with kind because of err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap attaches op to an upstream error and keeps its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: err, Err: nil}
}

// classify maps an error onto an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, allocation.ErrIndexOutOfRange):
		return http.StatusBadRequest, "index_out_of_range"
	case errors.Is(err, types.ErrTooManySlots):
		return http.StatusBadRequest, "too_many_slots"
	case errors.Is(err, model.ErrUnknownMode):
		return http.StatusBadRequest, "unknown_mode"
	case errors.Is(err, model.ErrInvalidAllocation):
		return http.StatusBadRequest, "invalid_allocation"
	case errors.Is(err, ErrBadRequest), errors.Is(err, types.ErrInvalidRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, types.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeKindError writes err with the status and code its kind maps to.
func writeKindError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
