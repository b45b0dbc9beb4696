// Package allocation assigns participants to numbered slots (pegs).
//
// Two strategies are provided. Fair mode is fully deterministic: participants
// with the fewest recorded events pick first, and each picks the free slot they
// have occupied least often, lowest slot number on ties. Random mode pairs two
// independent shuffles and ignores history.
//
// Every function here is pure over its inputs and safe for concurrent use as
// long as callers do not share a Shuffler between goroutines.
package allocation

import (
	"cmp"
	"slices"

	"github.com/okian/pegsync/internal/domain/model"
)

// Fair builds a history-weighted allocation of participants to slots
// [1, slotCount]. The result holds min(len(participants), slotCount) entries
// sorted ascending by slot. History records naming unknown participants or
// slots outside the range are ignored.
func Fair(participants []model.Participant, history []model.HistoricalAssignment, slotCount int) model.Allocation {
	if len(participants) == 0 || slotCount <= 0 {
		return model.Allocation{}
	}

	counts := occupancy(participants, history, slotCount)

	// Stable: equal totals keep roster order.
	order := slices.Clone(participants)
	slices.SortStableFunc(order, func(a, b model.Participant) int {
		return cmp.Compare(total(counts[a.ID]), total(counts[b.ID]))
	})

	taken := make([]bool, slotCount+1)
	placed := make(map[string]struct{}, len(order))
	out := make(model.Allocation, 0, min(len(order), slotCount))

	for _, p := range order {
		if len(out) == slotCount {
			break
		}
		if _, ok := placed[p.ID]; ok {
			continue
		}
		slot := bestSlot(counts[p.ID], taken)
		if slot == 0 {
			break
		}
		taken[slot] = true
		placed[p.ID] = struct{}{}
		out = append(out, assign(p, slot))
	}

	sortBySlot(out)
	return out
}

// occupancy returns, per roster participant, a slice indexed by slot number
// (index 0 unused) holding how often that participant occupied the slot.
func occupancy(participants []model.Participant, history []model.HistoricalAssignment, slotCount int) map[string][]int {
	counts := make(map[string][]int, len(participants))
	for _, p := range participants {
		if _, ok := counts[p.ID]; !ok {
			counts[p.ID] = make([]int, slotCount+1)
		}
	}
	for _, h := range history {
		row, ok := counts[h.ParticipantID]
		if !ok || h.Slot < 1 || h.Slot > slotCount {
			continue
		}
		row[h.Slot]++
	}
	return counts
}

func total(row []int) int {
	n := 0
	for _, c := range row {
		n += c
	}
	return n
}

// bestSlot scans free slots ascending and keeps the first strict minimum.
// Returns 0 when every slot is taken.
func bestSlot(row []int, taken []bool) int {
	best, lowest := 0, 0
	for slot := 1; slot < len(taken); slot++ {
		if taken[slot] {
			continue
		}
		if best == 0 || row[slot] < lowest {
			best, lowest = slot, row[slot]
		}
	}
	return best
}

func assign(p model.Participant, slot int) model.Assignment {
	return model.Assignment{
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		Slot:            slot,
		Guest:           p.Guest,
	}
}

func sortBySlot(a model.Allocation) {
	slices.SortStableFunc(a, func(x, y model.Assignment) int {
		return cmp.Compare(x.Slot, y.Slot)
	})
}
