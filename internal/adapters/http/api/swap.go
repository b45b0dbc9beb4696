package api

import (
	"context"
	"net/http"

	"github.com/okian/pegsync/internal/domain/model"
)

// SwapDependencies edits allocations.
type SwapDependencies interface {
	Swap(ctx context.Context, a model.Allocation, i, j int) (model.Allocation, error)
}

// SwapHandler handles swap requests.
type SwapHandler struct {
	deps SwapDependencies
}

// NewSwapHandler creates a new swap handler.
func NewSwapHandler(deps SwapDependencies) *SwapHandler {
	return &SwapHandler{deps: deps}
}

type swapRequest struct {
	Allocation model.Allocation `json:"allocation"`
	IndexA     int              `json:"index_a"`
	IndexB     int              `json:"index_b"`
}

type swapResponse struct {
	Allocation model.Allocation `json:"allocation"`
}

// HandlePostSwap handles POST /allocations/swap requests.
func (h *SwapHandler) HandlePostSwap(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_swap"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req swapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Swap(r.Context(), req.Allocation, req.IndexA, req.IndexB)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, swapResponse{Allocation: out})
}
