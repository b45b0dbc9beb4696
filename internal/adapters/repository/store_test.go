package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/pegsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 9, 0, 0, 0, time.UTC)
}

func records(date time.Time, pairs ...any) []model.HistoricalAssignment {
	out := make([]model.HistoricalAssignment, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.HistoricalAssignment{
			ParticipantID: pairs[i].(string),
			Slot:          pairs[i+1].(int),
			EventDate:     date,
		})
	}
	return out
}

// storeContract runs the behavior every Store implementation must share.
func storeContract(newStore func(t *testing.T) Store) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		Convey("Given an empty store", t, func() {
			s := newStore(t)
			Reset(func() { _ = s.Close() })

			Convey("Count and History are empty", func() {
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)

				h, err := s.History(ctx)
				So(err, ShouldBeNil)
				So(h, ShouldBeEmpty)
			})

			Convey("An empty event id is rejected", func() {
				err := s.SaveEvent(ctx, " ", records(day(1), "a", 1))
				So(errors.Is(err, ErrEmptyEventID), ShouldBeTrue)
			})

			Convey("Sub-second dates order chronologically", func() {
				whole := day(3)
				half := whole.Add(500 * time.Millisecond)
				So(s.SaveEvent(ctx, "a-later", records(half, "a", 1)), ShouldBeNil)
				So(s.SaveEvent(ctx, "z-earlier", records(whole, "a", 2)), ShouldBeNil)

				h, err := s.History(ctx, "a")
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 2)
				So(h[0].EventID, ShouldEqual, "z-earlier")
				So(h[1].EventID, ShouldEqual, "a-later")
				So(h[1].EventDate.Equal(half), ShouldBeTrue)
			})

			Convey("When two events are saved out of date order", func() {
				So(s.SaveEvent(ctx, "e2", records(day(8), "a", 2, "b", 1)), ShouldBeNil)
				So(s.SaveEvent(ctx, "e1", records(day(1), "a", 1, "b", 2)), ShouldBeNil)

				Convey("History is ordered by date then slot", func() {
					h, err := s.History(ctx)
					So(err, ShouldBeNil)
					So(h, ShouldHaveLength, 4)
					So(h[0].EventID, ShouldEqual, "e1")
					So(h[0].ParticipantID, ShouldEqual, "a")
					So(h[1].ParticipantID, ShouldEqual, "b")
					So(h[2].EventID, ShouldEqual, "e2")
					So(h[2].ParticipantID, ShouldEqual, "b")
					So(h[2].Slot, ShouldEqual, 1)
					So(h[0].EventDate.Equal(day(1)), ShouldBeTrue)
				})

				Convey("History filters by participant", func() {
					h, err := s.History(ctx, "b")
					So(err, ShouldBeNil)
					So(h, ShouldHaveLength, 2)
					for _, r := range h {
						So(r.ParticipantID, ShouldEqual, "b")
					}
				})

				Convey("An unknown participant yields nothing", func() {
					h, err := s.History(ctx, "zz")
					So(err, ShouldBeNil)
					So(h, ShouldBeEmpty)
				})

				Convey("Count covers every record", func() {
					n, err := s.Count(ctx)
					So(err, ShouldBeNil)
					So(n, ShouldEqual, 4)
				})

				Convey("Saving an event id again replaces its records", func() {
					So(s.SaveEvent(ctx, "e1", records(day(1), "c", 1)), ShouldBeNil)

					n, err := s.Count(ctx)
					So(err, ShouldBeNil)
					So(n, ShouldEqual, 3)

					h, err := s.History(ctx, "a")
					So(err, ShouldBeNil)
					So(h, ShouldHaveLength, 1)
					So(h[0].EventID, ShouldEqual, "e2")
				})
			})
		})
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(func(*testing.T) Store { return NewMemoryStore() })(t)
}

func TestSQLiteStore(t *testing.T) {
	storeContract(func(t *testing.T) Store {
		s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "history.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return s
	})(t)
}

func TestSQLiteStoreReopen(t *testing.T) {
	Convey("Records survive closing and reopening the database", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "history.db")

		s, err := NewSQLiteStore(ctx, path)
		So(err, ShouldBeNil)
		So(s.SaveEvent(ctx, "e1", records(day(3), "a", 1, "b", 2)), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		s, err = NewSQLiteStore(ctx, path)
		So(err, ShouldBeNil)
		defer s.Close()

		n, err := s.Count(ctx)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 2)
	})
}

func TestMemoryStoreClosed(t *testing.T) {
	Convey("A closed memory store refuses work", t, func() {
		ctx := context.Background()
		s := NewMemoryStore()
		So(s.Close(), ShouldBeNil)

		So(errors.Is(s.SaveEvent(ctx, "e", nil), ErrClosed), ShouldBeTrue)
		_, err := s.History(ctx)
		So(errors.Is(err, ErrClosed), ShouldBeTrue)
		_, err = s.Count(ctx)
		So(errors.Is(err, ErrClosed), ShouldBeTrue)
	})
}

func TestOpen(t *testing.T) {
	Convey("Open picks a store by driver name", t, func() {
		ctx := context.Background()

		s, err := Open(ctx, DriverMemory, "")
		So(err, ShouldBeNil)
		So(s, ShouldHaveSameTypeAs, &MemoryStore{})

		s, err = Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "x.db"))
		So(err, ShouldBeNil)
		So(s, ShouldHaveSameTypeAs, &SQLiteStore{})
		So(s.Close(), ShouldBeNil)

		_, err = Open(ctx, "postgres", "")
		So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
	})
}

func TestRetryOp(t *testing.T) {
	cfg := retryConfig{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: 2 * time.Millisecond}

	Convey("retryOp", t, func() {
		ctx := context.Background()

		Convey("retries transient errors until success", func() {
			calls := 0
			err := retryOp(ctx, cfg, func() error {
				calls++
				if calls < 3 {
					return errors.New("database is locked (5) (SQLITE_BUSY)")
				}
				return nil
			})
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 3)
		})

		Convey("returns permanent errors at once", func() {
			calls := 0
			err := retryOp(ctx, cfg, func() error {
				calls++
				return errors.New("constraint failed")
			})
			So(err, ShouldNotBeNil)
			So(calls, ShouldEqual, 1)
		})

		Convey("gives up after maxRetries", func() {
			calls := 0
			err := retryOp(ctx, cfg, func() error {
				calls++
				return errors.New("SQLITE_LOCKED")
			})
			So(err, ShouldNotBeNil)
			So(calls, ShouldEqual, 3)
		})

		Convey("stops when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := retryOp(cctx, cfg, func() error { return errors.New("SQLITE_BUSY") })
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
