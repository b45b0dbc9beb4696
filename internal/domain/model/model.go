// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Participant is a roster entry eligible for a peg.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Guest bool   `json:"guest,omitempty"` // carried through to the allocation only
}

// HistoricalAssignment records one past occupation of a slot by a participant.
// Records may reference participants outside the current roster or slots
// outside the current range; consumers ignore those.
type HistoricalAssignment struct {
	ParticipantID string    `json:"participant_id"`
	Slot          int       `json:"slot"`
	EventDate     time.Time `json:"event_date"`
	EventID       string    `json:"event_id,omitempty"`
}

// Assignment places one participant on one slot.
type Assignment struct {
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	Slot            int    `json:"slot"`
	Guest           bool   `json:"guest,omitempty"`
}

// Allocation is a set of assignments ordered ascending by slot.
type Allocation []Assignment

// Validate checks the structural invariants of an allocation against a slot
// range of [1, slotCount]: unique participants, unique slots, slots in range
// and ascending order.
func (a Allocation) Validate(slotCount int) error {
	participants := make(map[string]struct{}, len(a))
	slots := make(map[int]struct{}, len(a))
	for i, as := range a {
		if as.Slot < 1 || as.Slot > slotCount {
			return fmt.Errorf("%w: slot %d outside [1,%d]", ErrInvalidAllocation, as.Slot, slotCount)
		}
		if _, ok := slots[as.Slot]; ok {
			return fmt.Errorf("%w: slot %d assigned twice", ErrInvalidAllocation, as.Slot)
		}
		if _, ok := participants[as.ParticipantID]; ok {
			return fmt.Errorf("%w: participant %q assigned twice", ErrInvalidAllocation, as.ParticipantID)
		}
		if i > 0 && a[i-1].Slot > as.Slot {
			return fmt.Errorf("%w: not sorted by slot", ErrInvalidAllocation)
		}
		slots[as.Slot] = struct{}{}
		participants[as.ParticipantID] = struct{}{}
	}
	return nil
}

// Clone returns an independent copy.
func (a Allocation) Clone() Allocation {
	if a == nil {
		return nil
	}
	out := make(Allocation, len(a))
	copy(out, a)
	return out
}

// Mode selects the allocation strategy.
type Mode string

// Supported allocation modes.
const (
	ModeFair   Mode = "fair"
	ModeRandom Mode = "random"
)

// ParseMode parses a mode name case-insensitively. Empty input means fair.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeFair):
		return ModeFair, nil
	case string(ModeRandom):
		return ModeRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// SaveRequest asks for an accepted allocation to be persisted as history for
// an event. EventID is the idempotency key.
type SaveRequest struct {
	EventID    string
	EventDate  time.Time
	Allocation Allocation
}

// History converts the request into the history records it produces.
func (r SaveRequest) History() []HistoricalAssignment {
	out := make([]HistoricalAssignment, 0, len(r.Allocation))
	for _, as := range r.Allocation {
		out = append(out, HistoricalAssignment{
			ParticipantID: as.ParticipantID,
			Slot:          as.Slot,
			EventDate:     r.EventDate,
			EventID:       r.EventID,
		})
	}
	return out
}
