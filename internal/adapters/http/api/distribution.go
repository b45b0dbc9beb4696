package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pegsync/internal/domain/types"
)

// DistributionDependencies reports per-slot history for one participant.
type DistributionDependencies interface {
	Distribution(ctx context.Context, participantID string, slotCount int) (types.DistributionReport, error)
}

// DistributionHandler handles distribution requests.
type DistributionHandler struct {
	deps DistributionDependencies
}

// NewDistributionHandler creates a new distribution handler.
func NewDistributionHandler(deps DistributionDependencies) *DistributionHandler {
	return &DistributionHandler{deps: deps}
}

// HandleGetDistribution handles GET /distribution/{participant_id}?slots=N requests.
func (h *DistributionHandler) HandleGetDistribution(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_distribution"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/distribution/")
	if id == "" || strings.Contains(id, "/") {
		writeKindError(w, WrapKind(op, ErrBadRequest, errors.New("missing participant id")))
		return
	}
	slots, err := strconv.Atoi(r.URL.Query().Get("slots"))
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, errors.New("slots must be an integer")))
		return
	}

	rep, err := h.deps.Distribution(r.Context(), id, slots)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
