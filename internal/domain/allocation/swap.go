package allocation

import (
	"fmt"

	"github.com/okian/pegsync/internal/domain/model"
)

// Swap exchanges the slot numbers of entries i and j and re-sorts by slot.
// The input is left untouched. Either index outside [0, len(a)) yields
// ErrIndexOutOfRange.
func Swap(a model.Allocation, i, j int) (model.Allocation, error) {
	for _, idx := range [...]int{i, j} {
		if idx < 0 || idx >= len(a) {
			return nil, fmt.Errorf("%w: index %d, allocation size %d", ErrIndexOutOfRange, idx, len(a))
		}
	}

	out := a.Clone()
	out[i].Slot, out[j].Slot = out[j].Slot, out[i].Slot
	sortBySlot(out)
	return out, nil
}
