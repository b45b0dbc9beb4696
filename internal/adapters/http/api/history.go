package api

import (
	"context"
	"net/http"

	"github.com/okian/pegsync/internal/domain/model"
)

// HistoryDependencies reads stored history.
type HistoryDependencies interface {
	History(ctx context.Context, participantID string) ([]model.HistoricalAssignment, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

type historyResponse struct {
	Records []model.HistoricalAssignment `json:"records"`
}

// HandleGetHistory handles GET /history requests, optionally filtered by
// the participant_id query parameter.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	records, err := h.deps.History(r.Context(), r.URL.Query().Get("participant_id"))
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	if records == nil {
		records = []model.HistoricalAssignment{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Records: records})
}
