package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/pegsync/internal/adapters/repository"
	service "github.com/okian/pegsync/internal/app"
	"github.com/okian/pegsync/internal/domain/allocation"
	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var roster = []model.Participant{
	{ID: "a", Name: "Ann"},
	{ID: "b", Name: "Bob"},
	{ID: "c", Name: "Cat", Guest: true},
}

func save(id string, day int, alloc model.Allocation) model.SaveRequest {
	return model.SaveRequest{
		EventID:    id,
		EventDate:  time.Date(2026, 4, day, 7, 0, 0, 0, time.UTC),
		Allocation: alloc,
	}
}

func waitForRecords(store repository.Store, n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, _ := store.Count(context.Background()); c >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should not be started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.MaxSlots(), ShouldEqual, 64)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(10),
			service.WithDedupeSize(100),
			service.WithMaxSlots(12),
		)

		Convey("Then stats reflect them", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 10)
			So(stats["dedupeSize"], ShouldEqual, 100)
			So(svc.MaxSlots(), ShouldEqual, 12)
		})
	})
}

func TestService_Allocate(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithMaxSlots(10))

		Convey("Fair mode with explicit empty history places in roster order", func() {
			res, err := svc.Allocate(ctx, service.AllocateInput{
				Mode: model.ModeFair, SlotCount: 3, Participants: roster,
				History: []model.HistoricalAssignment{},
			})
			So(err, ShouldBeNil)
			So(res.Mode, ShouldEqual, model.ModeFair)
			So(res.FairnessScore, ShouldEqual, 100)
			So(res.Rating, ShouldEqual, "good")
			So(res.Allocation, ShouldHaveLength, 3)
			So(res.Allocation[0].ParticipantID, ShouldEqual, "a")
			So(res.Allocation[2].Guest, ShouldBeTrue)
		})

		Convey("An empty mode means fair", func() {
			res, err := svc.Allocate(ctx, service.AllocateInput{SlotCount: 2, Participants: roster})
			So(err, ShouldBeNil)
			So(res.Mode, ShouldEqual, model.ModeFair)
			So(res.Allocation, ShouldHaveLength, 2)
		})

		Convey("Explicit history drives the fair choice", func() {
			hist := []model.HistoricalAssignment{
				{ParticipantID: "a", Slot: 1}, {ParticipantID: "a", Slot: 1},
			}
			res, err := svc.Allocate(ctx, service.AllocateInput{
				Mode: model.ModeFair, SlotCount: 2, Participants: roster[:2], History: hist,
			})
			So(err, ShouldBeNil)
			So(res.Allocation[0].ParticipantID, ShouldEqual, "b")
			So(res.Allocation[1].ParticipantID, ShouldEqual, "a")
			So(res.FairnessScore, ShouldEqual, 80)
		})

		Convey("Random mode satisfies the allocation invariants", func() {
			res, err := svc.Allocate(ctx, service.AllocateInput{
				Mode: model.ModeRandom, SlotCount: 5, Participants: roster,
			})
			So(err, ShouldBeNil)
			So(res.Allocation, ShouldHaveLength, 3)
			So(res.Allocation.Validate(5), ShouldBeNil)
		})

		Convey("Too many slots is rejected", func() {
			_, err := svc.Allocate(ctx, service.AllocateInput{SlotCount: 11, Participants: roster})
			So(errors.Is(err, service.ErrTooManySlots), ShouldBeTrue)
		})

		Convey("An unknown mode is rejected", func() {
			_, err := svc.Allocate(ctx, service.AllocateInput{Mode: "lottery", SlotCount: 2, Participants: roster})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			So(errors.Is(err, model.ErrUnknownMode), ShouldBeTrue)
		})
	})

	Convey("Given two services with the same seed", t, func() {
		ctx := context.Background()
		in := service.AllocateInput{Mode: model.ModeRandom, SlotCount: 8, Participants: roster}

		r1, err1 := service.New(service.WithRandomSeed(42)).Allocate(ctx, in)
		r2, err2 := service.New(service.WithRandomSeed(42)).Allocate(ctx, in)

		Convey("Random allocations match", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(r1.Allocation, ShouldResemble, r2.Allocation)
		})
	})
}

func TestService_Swap(t *testing.T) {
	Convey("Given an allocation", t, func() {
		ctx := context.Background()
		svc := service.New()
		a := model.Allocation{
			{ParticipantID: "a", Slot: 1},
			{ParticipantID: "b", Slot: 2},
			{ParticipantID: "c", Slot: 3},
		}

		Convey("Swapping the ends exchanges their slots", func() {
			out, err := svc.Swap(ctx, a, 0, 2)
			So(err, ShouldBeNil)
			So(out[0].ParticipantID, ShouldEqual, "c")
			So(out[2].ParticipantID, ShouldEqual, "a")
			So(a[0].ParticipantID, ShouldEqual, "a")
		})

		Convey("An out of range index fails", func() {
			_, err := svc.Swap(ctx, a, 0, 3)
			So(errors.Is(err, allocation.ErrIndexOutOfRange), ShouldBeTrue)
		})
	})
}

func TestService_SaveAndHistory(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		first := model.Allocation{
			{ParticipantID: "a", ParticipantName: "Ann", Slot: 1},
			{ParticipantID: "b", ParticipantName: "Bob", Slot: 2},
		}

		Convey("When an allocation is saved", func() {
			st, err := svc.SaveAllocation(ctx, save("day-1", 1, first))
			So(err, ShouldBeNil)
			So(st.Status, ShouldEqual, "accepted")
			So(waitForRecords(store, 2), ShouldBeTrue)

			Convey("Then saving it again is a duplicate", func() {
				st, err := svc.SaveAllocation(ctx, save("day-1", 1, first))
				So(err, ShouldBeNil)
				So(st.Duplicate, ShouldBeTrue)
				So(st.Status, ShouldEqual, "duplicate")
			})

			Convey("Then history and distribution read it back", func() {
				h, err := svc.History(ctx, "a")
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 1)
				So(h[0].Slot, ShouldEqual, 1)

				all, err := svc.History(ctx, "")
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 2)

				d, err := svc.Distribution(ctx, "a", 3)
				So(err, ShouldBeNil)
				So(d.Slots, ShouldResemble, map[int]int{1: 1, 2: 0, 3: 0})
			})

			Convey("Then the next fair allocation rotates from stored history", func() {
				res, err := svc.Allocate(ctx, service.AllocateInput{SlotCount: 2, Participants: roster[:2]})
				So(err, ShouldBeNil)
				So(res.Allocation[0].ParticipantID, ShouldEqual, "b")
				So(res.Allocation[1].ParticipantID, ShouldEqual, "a")

				rep, err := svc.Fairness(ctx, roster[:2], nil)
				So(err, ShouldBeNil)
				So(rep.Score, ShouldEqual, 100)
			})
		})

		Convey("Invalid saves are rejected", func() {
			_, err := svc.SaveAllocation(ctx, save("", 1, first))
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)

			bad := model.Allocation{{ParticipantID: "a", Slot: 1}, {ParticipantID: "a", Slot: 2}}
			_, err = svc.SaveAllocation(ctx, save("day-x", 1, bad))
			So(errors.Is(err, model.ErrInvalidAllocation), ShouldBeTrue)

			_, err = svc.SaveAllocation(ctx, model.SaveRequest{EventID: "no-date", Allocation: first})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("Distribution validates its input", func() {
			_, err := svc.Distribution(ctx, "", 3)
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			_, err = svc.Distribution(ctx, "a", 0)
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			_, err = svc.Distribution(ctx, "a", 1000)
			So(errors.Is(err, service.ErrTooManySlots), ShouldBeTrue)
		})

		Convey("Stats report the running pipeline", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats, ShouldContainKey, "queueLength")
			So(stats, ShouldContainKey, "historyRecords")
		})
	})
}

// blockingStore holds every write until released, so the queue fills up.
type blockingStore struct {
	*repository.MemoryStore
	release chan struct{}
}

func (b *blockingStore) SaveEvent(ctx context.Context, eventID string, records []model.HistoricalAssignment) error {
	<-b.release
	return b.MemoryStore.SaveEvent(ctx, eventID, records)
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service with one worker and a one-slot queue", t, func() {
		ctx := context.Background()
		store := &blockingStore{MemoryStore: repository.NewMemoryStore(), release: make(chan struct{})}
		svc := service.New(service.WithStore(store), service.WithWorkerCount(1), service.WithQueueSize(1))
		So(svc.Start(ctx), ShouldBeNil)

		alloc := model.Allocation{{ParticipantID: "a", Slot: 1}}

		Convey("When saves outrun the worker", func() {
			var rejected string
			for i := 0; i < 5 && rejected == ""; i++ {
				id := fmt.Sprintf("e%d", i)
				if _, err := svc.SaveAllocation(ctx, save(id, 1, alloc)); errors.Is(err, service.ErrBackpressure) {
					rejected = id
				}
			}

			Convey("Then a save is refused and its id can be retried", func() {
				So(rejected, ShouldNotBeEmpty)
				close(store.release)
				So(waitForRecords(store, 1), ShouldBeTrue)

				deadline := time.Now().Add(2 * time.Second)
				var err error
				for time.Now().Before(deadline) {
					if _, err = svc.SaveAllocation(ctx, save(rejected, 1, alloc)); !errors.Is(err, service.ErrBackpressure) {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(err, ShouldBeNil)
				svc.Stop()
			})
		})
	})
}

// flakyStore fails the first write and accepts the rest.
type flakyStore struct {
	*repository.MemoryStore
	failures atomic.Int32
}

var errDiskIO = errors.New("disk I/O error")

func (f *flakyStore) SaveEvent(ctx context.Context, eventID string, records []model.HistoricalAssignment) error {
	if f.failures.Add(1) == 1 {
		return errDiskIO
	}
	return f.MemoryStore.SaveEvent(ctx, eventID, records)
}

func TestService_SaveRetryAfterFailedWrite(t *testing.T) {
	Convey("Given a service whose store fails the first write", t, func() {
		ctx := context.Background()
		store := &flakyStore{MemoryStore: repository.NewMemoryStore()}
		svc := service.New(service.WithStore(store), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		req := save("shoot-9", 9, model.Allocation{{ParticipantID: "a", Slot: 1}, {ParticipantID: "b", Slot: 2}})

		Convey("When the first save is lost and the client saves again", func() {
			status, err := svc.SaveAllocation(ctx, req)
			So(err, ShouldBeNil)
			So(status.Status, ShouldEqual, "accepted")

			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				status, err = svc.SaveAllocation(ctx, req)
				if err != nil || !status.Duplicate {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}

			Convey("Then the retry is accepted and the records are stored", func() {
				So(err, ShouldBeNil)
				So(status.Status, ShouldEqual, "accepted")
				So(waitForRecords(store, 2), ShouldBeTrue)

				again, err := svc.SaveAllocation(ctx, req)
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
			})
		})
	})
}

func TestService_NotStarted(t *testing.T) {
	Convey("Saving before Start fails", t, func() {
		svc := service.New()
		_, err := svc.SaveAllocation(context.Background(), save("e", 1, model.Allocation{}))
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
	})
}
