package api

import (
	"context"
	"net/http"

	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/internal/domain/types"
)

// FairnessDependencies scores rosters.
type FairnessDependencies interface {
	Fairness(ctx context.Context, participants []model.Participant, history []model.HistoricalAssignment) (types.FairnessReport, error)
}

// FairnessHandler handles fairness requests.
type FairnessHandler struct {
	deps FairnessDependencies
}

// NewFairnessHandler creates a new fairness handler.
func NewFairnessHandler(deps FairnessDependencies) *FairnessHandler {
	return &FairnessHandler{deps: deps}
}

// HandlePostFairness handles POST /fairness requests.
func (h *FairnessHandler) HandlePostFairness(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_fairness"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req participantsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	rep, err := h.deps.Fairness(r.Context(), req.Participants, req.History)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
