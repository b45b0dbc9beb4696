package season

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/pkg/logger"
)

const (
	settlePollInterval  = 20 * time.Millisecond
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrNotPersisted is returned when a saved day does not show up in history
// within Config.SettleWait.
var ErrNotPersisted = errors.New("saved allocation not visible in history")

// Run simulates the season and returns its report.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("season")
	started := time.Now()

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1)) //nolint:gosec // simulation only

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	roster := NewRoster(rng, cfg.Members)
	log.Info(ctx, "starting season",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("members", cfg.Members),
		logger.Int("days", cfg.Days),
		logger.Int("slots", cfg.Slots),
		logger.String("mode", cfg.Mode),
		logger.Any("seed", seed),
	)

	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC().Truncate(24 * time.Hour)
	}

	report := &Report{Mode: cfg.Mode, Members: cfg.Members, Slots: cfg.Slots}
	for day := 1; day <= cfg.Days; day++ {
		dr, err := runDay(ctx, client, cfg, rng, roster, day, start.Add(time.Duration(day-1)*cfg.Interval))
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", day, err)
		}
		log.Info(ctx, "shoot day complete",
			logger.Int("day", dr.Day),
			logger.Int("attendees", dr.Attendees),
			logger.Int("placed", dr.Placed),
			logger.Int("fairness_score", dr.FairnessScore),
			logger.String("rating", dr.Rating),
		)
		report.Days = append(report.Days, dr)
	}

	report.FinalScore = report.Days[len(report.Days)-1].FairnessScore
	report.Duration = time.Since(started)

	if cfg.Output != "" {
		if err := writeJSON(cfg.Output, report); err != nil {
			log.Warn(ctx, "failed to write report", logger.Error(err))
		}
	}
	return report, nil
}

func runDay(ctx context.Context, c *Client, cfg *Config, rng *rand.Rand, roster []model.Participant, day int, date time.Time) (DayReport, error) {
	attending := Attendees(rng, roster, cfg.Attendance)

	res, err := c.Allocate(ctx, cfg.Mode, cfg.Slots, attending)
	if err != nil {
		return DayReport{}, fmt.Errorf("allocate: %w", err)
	}

	eventID := uuid.NewString()
	st, err := c.Save(ctx, eventID, date, res.Allocation)
	if err != nil {
		return DayReport{}, fmt.Errorf("save: %w", err)
	}
	if len(res.Allocation) > 0 {
		if err := waitPersisted(ctx, c, res.Allocation[0].ParticipantID, eventID, cfg.SettleWait); err != nil {
			return DayReport{}, err
		}
	}

	fair, err := c.Fairness(ctx, roster)
	if err != nil {
		return DayReport{}, fmt.Errorf("fairness: %w", err)
	}

	return DayReport{
		Day:           day,
		EventID:       eventID,
		Date:          date,
		Attendees:     len(attending),
		Placed:        len(res.Allocation),
		SaveStatus:    st.Status,
		FairnessScore: fair.Score,
		Rating:        fair.Rating,
	}, nil
}

// waitPersisted polls history until eventID appears for participantID.
// Saves are persisted asynchronously, so the next day's allocation would
// otherwise miss them.
func waitPersisted(ctx context.Context, c *Client, participantID, eventID string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		recs, err := c.History(ctx, participantID)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		if slices.ContainsFunc(recs, func(h model.HistoricalAssignment) bool { return h.EventID == eventID }) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: event %s", ErrNotPersisted, eventID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePollInterval):
		}
	}
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, raw, filePermission)
}
