package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/okian/pegsync/internal/domain/model"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byEvent map[string][]model.HistoricalAssignment
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEvent: make(map[string][]model.HistoricalAssignment)}
}

func (s *MemoryStore) SaveEvent(_ context.Context, eventID string, records []model.HistoricalAssignment) error {
	if strings.TrimSpace(eventID) == "" {
		return ErrEmptyEventID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cp := make([]model.HistoricalAssignment, len(records))
	for i, r := range records {
		r.EventID = eventID
		cp[i] = r
	}
	s.byEvent[eventID] = cp
	return nil
}

func (s *MemoryStore) History(_ context.Context, participantIDs ...string) ([]model.HistoricalAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var want map[string]struct{}
	if len(participantIDs) > 0 {
		want = make(map[string]struct{}, len(participantIDs))
		for _, id := range participantIDs {
			want[id] = struct{}{}
		}
	}

	out := []model.HistoricalAssignment{}
	for _, records := range s.byEvent {
		for _, r := range records {
			if want != nil {
				if _, ok := want[r.ParticipantID]; !ok {
					continue
				}
			}
			out = append(out, r)
		}
	}
	sortHistory(out)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	n := 0
	for _, records := range s.byEvent {
		n += len(records)
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.byEvent = nil
	return nil
}

func sortHistory(h []model.HistoricalAssignment) {
	slices.SortFunc(h, func(a, b model.HistoricalAssignment) int {
		if c := a.EventDate.Compare(b.EventDate); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EventID, b.EventID); c != 0 {
			return c
		}
		return cmp.Compare(a.Slot, b.Slot)
	})
}

var _ Store = (*MemoryStore)(nil)
