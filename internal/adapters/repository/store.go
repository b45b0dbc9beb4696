// Package repository stores the slot history that fair allocation and
// fairness scoring read from.
package repository

import (
	"context"

	"github.com/okian/pegsync/internal/domain/model"
)

// Store provides read/write access to historical slot assignments.
type Store interface {
	// SaveEvent stores the records of one event, replacing any records
	// previously stored under the same event id.
	SaveEvent(ctx context.Context, eventID string, records []model.HistoricalAssignment) error

	// History returns stored records. With participant ids it returns only
	// records for those participants. Order is by event date, then event id,
	// then slot.
	History(ctx context.Context, participantIDs ...string) ([]model.HistoricalAssignment, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}
