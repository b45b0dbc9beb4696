// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/pegsync/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AllocationDependencies
	SwapDependencies
	SaveDependencies
	FairnessDependencies
	DistributionDependencies
	HistoryDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	allocationsHandler  *AllocationsHandler
	swapHandler         *SwapHandler
	saveHandler         *SaveHandler
	fairnessHandler     *FairnessHandler
	distributionHandler *DistributionHandler
	historyHandler      *HistoryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		allocationsHandler:  NewAllocationsHandler(deps),
		swapHandler:         NewSwapHandler(deps),
		saveHandler:         NewSaveHandler(deps),
		fairnessHandler:     NewFairnessHandler(deps),
		distributionHandler: NewDistributionHandler(deps),
		historyHandler:      NewHistoryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/allocations", MetricsMiddleware(s.allocationsHandler.HandlePostAllocation, "allocations"))
	mux.HandleFunc("/allocations/swap", MetricsMiddleware(s.swapHandler.HandlePostSwap, "allocations_swap"))
	mux.HandleFunc("/allocations/save", MetricsMiddleware(s.saveHandler.HandlePostSave, "allocations_save"))
	mux.HandleFunc("/fairness", MetricsMiddleware(s.fairnessHandler.HandlePostFairness, "fairness"))
	mux.HandleFunc("/distribution/", MetricsMiddleware(s.distributionHandler.HandleGetDistribution, "distribution"))
	mux.HandleFunc("/history", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
}

// participantsRequest is shared by requests that carry a roster.
type participantsRequest struct {
	Participants []model.Participant          `json:"participants"`
	History      []model.HistoricalAssignment `json:"history"`
}

func (p participantsRequest) validate() error {
	seen := make(map[string]struct{}, len(p.Participants))
	for i, pt := range p.Participants {
		if pt.ID == "" {
			return fmt.Errorf("participants[%d]: missing id", i)
		}
		if _, ok := seen[pt.ID]; ok {
			return fmt.Errorf("participants[%d]: duplicate id %q", i, pt.ID)
		}
		seen[pt.ID] = struct{}{}
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
