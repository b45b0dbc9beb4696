// Package selection tracks the two-click swap gesture on an allocation.
//
// A Selector belongs to a single editing session. It is not safe for
// concurrent use.
package selection

// State is the gesture state.
type State int

// Gesture states.
const (
	Idle State = iota
	OneSelected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OneSelected:
		return "one_selected"
	default:
		return "unknown"
	}
}

// Pair names the two allocation indices to swap.
type Pair struct {
	A, B int
}

// Selector is the Idle / OneSelected(index) state machine.
type Selector struct {
	state    State
	selected int
}

// State reports the current state.
func (s *Selector) State() State { return s.state }

// Selected returns the selected index and whether one is selected.
func (s *Selector) Selected() (int, bool) {
	return s.selected, s.state == OneSelected
}

// Toggle handles a click on index. The first click selects it, a click on
// the same index clears the selection, and a click on a different index
// returns the pair to swap and resets to Idle.
func (s *Selector) Toggle(index int) (Pair, bool) {
	switch {
	case s.state == Idle:
		s.state, s.selected = OneSelected, index
		return Pair{}, false
	case s.selected == index:
		s.Reset()
		return Pair{}, false
	default:
		p := Pair{A: s.selected, B: index}
		s.Reset()
		return p, true
	}
}

// Reset returns to Idle, e.g. after the allocation is regenerated.
func (s *Selector) Reset() {
	s.state, s.selected = Idle, 0
}
