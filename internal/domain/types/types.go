// Package types contains common types used across the application
package types

import "github.com/okian/pegsync/internal/domain/model"

// AllocateInput describes one allocation request. A nil History means the
// stored history for these participants is used.
type AllocateInput struct {
	Mode         model.Mode
	SlotCount    int
	Participants []model.Participant
	History      []model.HistoricalAssignment
}

// AllocationResult is a generated allocation plus the roster's season score.
type AllocationResult struct {
	Mode          model.Mode       `json:"mode"`
	Allocation    model.Allocation `json:"allocation"`
	FairnessScore int              `json:"fairness_score"`
	Rating        string           `json:"rating"`
}

// FairnessReport is the season fairness summary for a roster.
type FairnessReport struct {
	Score  int    `json:"score"`
	Rating string `json:"rating"`
}

// DistributionReport is one participant's per-slot occupancy.
type DistributionReport struct {
	ParticipantID string      `json:"participant_id"`
	Slots         map[int]int `json:"slots"`
}

// SaveStatus reports the outcome of a save request.
type SaveStatus struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}
