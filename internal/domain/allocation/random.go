package allocation

import (
	"math/rand/v2"

	"github.com/okian/pegsync/internal/domain/model"
)

// Shuffler permutes n elements in place through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// NewSource returns a deterministic Shuffler for the given seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // allocation draws are not security sensitive
}

// Random pairs an independently shuffled roster with independently shuffled
// slots [1, slotCount]. A nil src uses the process-wide generator, so repeated
// calls diverge. The result is sorted ascending by slot.
func Random(src Shuffler, participants []model.Participant, slotCount int) model.Allocation {
	if len(participants) == 0 || slotCount <= 0 {
		return model.Allocation{}
	}
	if src == nil {
		src = globalShuffler{}
	}

	roster := dedupeRoster(participants)
	src.Shuffle(len(roster), func(i, j int) { roster[i], roster[j] = roster[j], roster[i] })

	slots := make([]int, slotCount)
	for i := range slots {
		slots[i] = i + 1
	}
	src.Shuffle(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })

	n := min(len(roster), slotCount)
	out := make(model.Allocation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, assign(roster[i], slots[i]))
	}

	sortBySlot(out)
	return out
}

// dedupeRoster copies the roster keeping the first entry per id.
func dedupeRoster(participants []model.Participant) []model.Participant {
	seen := make(map[string]struct{}, len(participants))
	out := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Allocate dispatches to Fair or Random by mode.
func Allocate(mode model.Mode, src Shuffler, participants []model.Participant, history []model.HistoricalAssignment, slotCount int) (model.Allocation, error) {
	switch mode {
	case model.ModeFair, "":
		return Fair(participants, history, slotCount), nil
	case model.ModeRandom:
		return Random(src, participants, slotCount), nil
	default:
		return nil, model.ErrUnknownMode
	}
}
