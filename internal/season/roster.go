package season

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/pegsync/internal/domain/model"
)

var (
	firstNames = []string{"Alan", "Bev", "Colin", "Dee", "Eddie", "Fran", "Gary", "Hana", "Ivor", "Jo", "Ken", "Lou"}
	lastNames  = []string{"Archer", "Brook", "Carp", "Dace", "Eel", "Fisher", "Gudgeon", "Hook", "Ide", "Jack"}
)

// NewRoster builds n members with random uuid ids. Every seventh member is a
// guest.
func NewRoster(rng *rand.Rand, n int) []model.Participant {
	roster := make([]model.Participant, 0, n)
	for i := range n {
		name := fmt.Sprintf("%s %s",
			firstNames[rng.IntN(len(firstNames))],
			lastNames[rng.IntN(len(lastNames))])
		roster = append(roster, model.Participant{
			ID:    uuid.NewString(),
			Name:  name,
			Guest: i%7 == 6,
		})
	}
	return roster
}

// Attendees picks the members who turn up on a day, keeping roster order.
// At least one member always attends.
func Attendees(rng *rand.Rand, roster []model.Participant, p float64) []model.Participant {
	out := make([]model.Participant, 0, len(roster))
	for _, m := range roster {
		if rng.Float64() < p {
			out = append(out, m)
		}
	}
	if len(out) == 0 && len(roster) > 0 {
		out = append(out, roster[rng.IntN(len(roster))])
	}
	return out
}
