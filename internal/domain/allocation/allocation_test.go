package allocation_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/pegsync/internal/domain/allocation"
	"github.com/okian/pegsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func roster(ids ...string) []model.Participant {
	out := make([]model.Participant, len(ids))
	for i, id := range ids {
		out[i] = model.Participant{ID: id, Name: "Gun " + id}
	}
	return out
}

func past(id string, slot, times int) []model.HistoricalAssignment {
	out := make([]model.HistoricalAssignment, times)
	for i := range out {
		out[i] = model.HistoricalAssignment{
			ParticipantID: id,
			Slot:          slot,
			EventDate:     time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func pairs(a model.Allocation) []string {
	out := make([]string, len(a))
	for i, as := range a {
		out[i] = fmt.Sprintf("%s:%d", as.ParticipantID, as.Slot)
	}
	return out
}

func TestFair(t *testing.T) {
	Convey("Given the fair allocator", t, func() {
		Convey("When history is empty", func() {
			got := allocation.Fair(roster("A", "B", "C"), nil, 3)

			Convey("Then participants fill slots in roster order", func() {
				So(pairs(got), ShouldResemble, []string{"A:1", "B:2", "C:3"})
				So(got[0].ParticipantName, ShouldEqual, "Gun A")
			})
		})

		Convey("When one participant has attended more often", func() {
			got := allocation.Fair(roster("A", "B"), past("A", 1, 3), 2)

			Convey("Then the less attended participant picks first", func() {
				So(pairs(got), ShouldResemble, []string{"B:1", "A:2"})
			})
		})

		Convey("When a participant has worn out their usual peg", func() {
			h := append(past("A", 1, 2), past("A", 2, 1)...)
			h = append(h, past("B", 3, 3)...)
			got := allocation.Fair(roster("A", "B"), h, 3)

			Convey("Then each picks their least used free slot", func() {
				// Both total 3; A keeps roster priority and takes slot 3 (0 uses).
				// B then has slots 1 and 2 free at 0 uses and takes 1.
				So(pairs(got), ShouldResemble, []string{"B:1", "A:3"})
			})
		})

		Convey("When totals tie", func() {
			h := append(past("C", 1, 1), past("A", 2, 1)...)
			got := allocation.Fair(roster("C", "B", "A"), h, 3)

			Convey("Then roster order breaks the tie", func() {
				// B (0) first -> slot 1; C (1) -> slot 2; A (1) -> slot 3.
				So(pairs(got), ShouldResemble, []string{"B:1", "C:2", "A:3"})
			})
		})

		Convey("When the roster is larger than the slot count", func() {
			h := append(past("A", 1, 2), past("B", 1, 1)...)
			got := allocation.Fair(roster("A", "B", "C", "D"), h, 2)

			Convey("Then the least attended participants get the slots", func() {
				So(got, ShouldHaveLength, 2)
				So(pairs(got), ShouldResemble, []string{"C:1", "D:2"})
			})
		})

		Convey("When the slot count is zero or negative", func() {
			Convey("Then the allocation is empty", func() {
				So(allocation.Fair(roster("A"), nil, 0), ShouldBeEmpty)
				So(allocation.Fair(roster("A"), nil, -3), ShouldBeEmpty)
			})
		})

		Convey("When the roster is empty", func() {
			Convey("Then the allocation is empty", func() {
				So(allocation.Fair(nil, past("A", 1, 2), 4), ShouldBeEmpty)
			})
		})

		Convey("When history references unknown participants and slots", func() {
			h := []model.HistoricalAssignment{
				{ParticipantID: "ghost", Slot: 1},
				{ParticipantID: "A", Slot: 9},
				{ParticipantID: "A", Slot: 0},
				{ParticipantID: "A", Slot: -2},
			}
			got := allocation.Fair(roster("A", "B"), h, 2)

			Convey("Then those records are ignored", func() {
				So(pairs(got), ShouldResemble, []string{"A:1", "B:2"})
			})
		})

		Convey("When the roster repeats a participant", func() {
			got := allocation.Fair(roster("A", "A", "B"), nil, 3)

			Convey("Then the participant is placed once", func() {
				So(pairs(got), ShouldResemble, []string{"A:1", "B:2"})
			})
		})

		Convey("When guests are on the roster", func() {
			r := []model.Participant{{ID: "g1", Name: "Guest", Guest: true}}
			got := allocation.Fair(r, nil, 2)

			Convey("Then the guest flag is carried through", func() {
				So(got[0].Guest, ShouldBeTrue)
			})
		})

		Convey("When called repeatedly with the same inputs", func() {
			r := roster("A", "B", "C", "D", "E")
			h := append(past("A", 2, 2), past("C", 1, 1)...)
			h = append(h, past("E", 4, 3)...)
			first := allocation.Fair(r, h, 4)

			Convey("Then the output is identical every time", func() {
				for i := 0; i < 20; i++ {
					So(allocation.Fair(r, h, 4), ShouldResemble, first)
				}
				So(first.Validate(4), ShouldBeNil)
			})
		})
	})
}

func TestRandom(t *testing.T) {
	Convey("Given the random allocator", t, func() {
		r := roster("A", "B", "C", "D", "E", "F", "G")

		Convey("When run many times with a seeded source", func() {
			src := allocation.NewSource(7)

			Convey("Then every result satisfies the structural invariants", func() {
				for _, slots := range []int{0, 1, 3, 7, 10} {
					for i := 0; i < 200; i++ {
						got := allocation.Random(src, r, slots)
						So(got, ShouldHaveLength, min(len(r), slots))
						So(got.Validate(slots), ShouldBeNil)
					}
				}
			})
		})

		Convey("When two sources share a seed", func() {
			a := allocation.Random(allocation.NewSource(42), r, 7)
			b := allocation.Random(allocation.NewSource(42), r, 7)

			Convey("Then they produce the same allocation", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When using the process-wide generator", func() {
			seen := map[string]struct{}{}
			for i := 0; i < 50; i++ {
				got := allocation.Random(nil, r, 7)
				So(got.Validate(7), ShouldBeNil)
				seen[fmt.Sprint(pairs(got))] = struct{}{}
			}

			Convey("Then repeated calls diverge", func() {
				So(len(seen), ShouldBeGreaterThan, 1)
			})
		})

		Convey("When every slot is drawn over many runs", func() {
			src := allocation.NewSource(99)
			hits := map[int]int{}
			for i := 0; i < 500; i++ {
				for _, as := range allocation.Random(src, roster("A", "B"), 5) {
					hits[as.Slot]++
				}
			}

			Convey("Then all slots appear", func() {
				for slot := 1; slot <= 5; slot++ {
					So(hits[slot], ShouldBeGreaterThan, 0)
				}
			})
		})

		Convey("When the roster or slot count is empty", func() {
			Convey("Then the allocation is empty", func() {
				So(allocation.Random(nil, nil, 5), ShouldBeEmpty)
				So(allocation.Random(nil, r, 0), ShouldBeEmpty)
			})
		})
	})
}

func TestAllocate(t *testing.T) {
	Convey("Given the mode dispatcher", t, func() {
		r := roster("A", "B")

		Convey("Then fair mode matches Fair", func() {
			got, err := allocation.Allocate(model.ModeFair, nil, r, nil, 2)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, allocation.Fair(r, nil, 2))
		})

		Convey("Then random mode returns a valid allocation", func() {
			got, err := allocation.Allocate(model.ModeRandom, allocation.NewSource(1), r, nil, 2)
			So(err, ShouldBeNil)
			So(got.Validate(2), ShouldBeNil)
		})

		Convey("Then an unknown mode fails", func() {
			_, err := allocation.Allocate(model.Mode("lottery"), nil, r, nil, 2)
			So(errors.Is(err, model.ErrUnknownMode), ShouldBeTrue)
		})
	})
}

func TestSwap(t *testing.T) {
	Convey("Given a three entry allocation", t, func() {
		base := allocation.Fair(roster("A", "B", "C"), nil, 3)

		Convey("When swapping the first and last entries", func() {
			got, err := allocation.Swap(base, 0, 2)

			Convey("Then slots are exchanged and the result re-sorted", func() {
				So(err, ShouldBeNil)
				So(pairs(got), ShouldResemble, []string{"C:1", "B:2", "A:3"})
			})

			Convey("And the input is unchanged", func() {
				So(pairs(base), ShouldResemble, []string{"A:1", "B:2", "C:3"})
			})
		})

		Convey("When swapping an entry with itself", func() {
			got, err := allocation.Swap(base, 1, 1)

			Convey("Then nothing changes", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, base)
			})
		})

		Convey("When swapping non-contiguous slots", func() {
			sparse := model.Allocation{
				{ParticipantID: "A", Slot: 2},
				{ParticipantID: "B", Slot: 5},
				{ParticipantID: "C", Slot: 9},
			}
			got, err := allocation.Swap(sparse, 2, 0)

			Convey("Then only the two slots move", func() {
				So(err, ShouldBeNil)
				So(pairs(got), ShouldResemble, []string{"C:2", "B:5", "A:9"})
			})
		})

		Convey("When an index is out of range", func() {
			_, errNeg := allocation.Swap(base, -1, 0)
			_, errHigh := allocation.Swap(base, 0, len(base))
			_, errEmpty := allocation.Swap(model.Allocation{}, 0, 0)

			Convey("Then ErrIndexOutOfRange is reported", func() {
				So(errors.Is(errNeg, allocation.ErrIndexOutOfRange), ShouldBeTrue)
				So(errors.Is(errHigh, allocation.ErrIndexOutOfRange), ShouldBeTrue)
				So(errors.Is(errEmpty, allocation.ErrIndexOutOfRange), ShouldBeTrue)
			})
		})
	})
}
