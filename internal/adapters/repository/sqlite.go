package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/okian/pegsync/internal/domain/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists history in a WAL-mode SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// eventDateLayout is fixed width so event_date sorts chronologically as text.
const eventDateLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *SQLiteStore) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS slot_history (
		event_id       TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		slot           INTEGER NOT NULL,
		event_date     TEXT NOT NULL,
		PRIMARY KEY (event_id, participant_id)
	);
	CREATE INDEX IF NOT EXISTS idx_slot_history_participant ON slot_history(participant_id);
	CREATE INDEX IF NOT EXISTS idx_slot_history_date ON slot_history(event_date, event_id, slot);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) SaveEvent(ctx context.Context, eventID string, records []model.HistoricalAssignment) error {
	if strings.TrimSpace(eventID) == "" {
		return ErrEmptyEventID
	}
	return retryOnContention(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM slot_history WHERE event_id = ?`, eventID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO slot_history (event_id, participant_id, slot, event_date) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			date := r.EventDate.UTC().Format(eventDateLayout)
			if _, err := stmt.ExecContext(ctx, eventID, r.ParticipantID, r.Slot, date); err != nil {
				return fmt.Errorf("insert %s/%s: %w", eventID, r.ParticipantID, err)
			}
		}
		return tx.Commit()
	})
}

func (s *SQLiteStore) History(ctx context.Context, participantIDs ...string) ([]model.HistoricalAssignment, error) {
	query := `SELECT event_id, participant_id, slot, event_date FROM slot_history`
	args := make([]any, 0, len(participantIDs))
	if len(participantIDs) > 0 {
		query += ` WHERE participant_id IN (?` + strings.Repeat(",?", len(participantIDs)-1) + `)`
		for _, id := range participantIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY event_date, event_id, slot`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.HistoricalAssignment{}
	for rows.Next() {
		var h model.HistoricalAssignment
		var dateStr string
		if err := rows.Scan(&h.EventID, &h.ParticipantID, &h.Slot, &dateStr); err != nil {
			return nil, err
		}
		h.EventDate, err = time.Parse(time.RFC3339Nano, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse event_date for %s: %w", h.EventID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slot_history`).Scan(&n)
	return n, err
}

var _ Store = (*SQLiteStore)(nil)
