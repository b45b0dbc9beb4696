package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/internal/domain/types"
)

// AllocationDependencies generates allocations.
type AllocationDependencies interface {
	Allocate(ctx context.Context, in types.AllocateInput) (types.AllocationResult, error)
}

// AllocationsHandler handles allocation requests.
type AllocationsHandler struct {
	deps AllocationDependencies
}

// NewAllocationsHandler creates a new allocations handler.
func NewAllocationsHandler(deps AllocationDependencies) *AllocationsHandler {
	return &AllocationsHandler{deps: deps}
}

// allocateRequest mirrors the OpenAPI schema for POST /allocations.
// An absent history means the stored history is used.
type allocateRequest struct {
	participantsRequest
	Mode      string `json:"mode"`
	SlotCount int    `json:"slot_count"`
}

func (a allocateRequest) validate() error {
	if a.SlotCount < 0 {
		return errors.New("slot_count must not be negative")
	}
	return a.participantsRequest.validate()
}

// HandlePostAllocation handles POST /allocations requests.
func (h *AllocationsHandler) HandlePostAllocation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_allocation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req allocateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}

	res, err := h.deps.Allocate(r.Context(), types.AllocateInput{
		Mode:         mode,
		SlotCount:    req.SlotCount,
		Participants: req.Participants,
		History:      req.History,
	})
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
