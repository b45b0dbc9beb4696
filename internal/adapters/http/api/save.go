package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/internal/domain/types"
)

// SaveDependencies records accepted allocations as history.
type SaveDependencies interface {
	// SaveAllocation returns ErrBackpressure when the save was not queued.
	SaveAllocation(ctx context.Context, req model.SaveRequest) (types.SaveStatus, error)
}

// SaveHandler handles save requests.
type SaveHandler struct {
	deps SaveDependencies
}

// NewSaveHandler creates a new save handler.
func NewSaveHandler(deps SaveDependencies) *SaveHandler {
	return &SaveHandler{deps: deps}
}

// saveRequest mirrors the OpenAPI schema for POST /allocations/save.
type saveRequest struct {
	EventID    string           `json:"event_id"`
	EventDate  string           `json:"event_date"`
	Allocation model.Allocation `json:"allocation"`
}

func (s saveRequest) toModel() (model.SaveRequest, error) {
	switch {
	case strings.TrimSpace(s.EventID) == "":
		return model.SaveRequest{}, errors.New("missing event_id")
	case strings.TrimSpace(s.EventDate) == "":
		return model.SaveRequest{}, errors.New("missing event_date")
	}
	date, err := parseDate(s.EventDate)
	if err != nil {
		return model.SaveRequest{}, errors.New("invalid event_date; must be RFC3339 or YYYY-MM-DD")
	}
	return model.SaveRequest{EventID: s.EventID, EventDate: date, Allocation: s.Allocation}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// HandlePostSave handles POST /allocations/save requests.
func (h *SaveHandler) HandlePostSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_save"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req saveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sr, err := req.toModel()
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	status, err := h.deps.SaveAllocation(r.Context(), sr)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	if status.Duplicate {
		writeJSON(w, http.StatusOK, status)
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}
