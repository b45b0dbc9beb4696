// Package service wires allocation, scoring and history persistence into
// the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	eventqueue "github.com/okian/pegsync/internal/adapters/mq/queue"
	workerpool "github.com/okian/pegsync/internal/adapters/mq/worker"
	"github.com/okian/pegsync/internal/adapters/repository"
	"github.com/okian/pegsync/internal/domain/allocation"
	"github.com/okian/pegsync/internal/domain/dedupe"
	"github.com/okian/pegsync/internal/domain/fairness"
	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/internal/domain/types"
	"github.com/okian/pegsync/pkg/logger"
	"github.com/okian/pegsync/pkg/metrics"
)

const (
	defaultQueueSize  = 1_000
	defaultDedupeSize = 10_000
	defaultMaxSlots   = 64
)

// AllocateInput describes one allocation request.
type AllocateInput = types.AllocateInput

// lockedShuffler serializes access to a non-thread-safe source.
type lockedShuffler struct {
	mu  sync.Mutex
	src allocation.Shuffler
}

func (l *lockedShuffler) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src.Shuffle(n, swap)
}

// Service implements the API dependencies for peg allocation.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	deduper  dedupe.Deduper
	queue    *eventqueue.InMemoryQueue
	pool     *workerpool.Pool
	shuffler allocation.Shuffler

	workerCount int
	queueSize   int
	dedupeSize  int
	maxSlots    int

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Without WithStore it keeps history in memory.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		maxSlots:    defaultMaxSlots,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

// Start launches the persistence pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store,
		workerpool.WithFailureHandler(s.releaseFailed))

	// Workers outlive the caller's ctx; Stop drains them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateHistoryRecords(n)
	}

	s.started = true
	s.logger.Info(ctx, "allocation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("max_slots", s.maxSlots),
	)
	return nil
}

// Stop drains pending saves and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping allocation service")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancel()
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "store close", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "allocation service stopped")
}

// Allocate generates an allocation and scores the roster's history.
func (s *Service) Allocate(ctx context.Context, in AllocateInput) (types.AllocationResult, error) {
	if in.SlotCount > s.maxSlots {
		return types.AllocationResult{}, fmt.Errorf("%w: %d > %d", ErrTooManySlots, in.SlotCount, s.maxSlots)
	}
	mode := in.Mode
	if mode == "" {
		mode = model.ModeFair
	}

	history, err := s.historyFor(ctx, in.Participants, in.History)
	if err != nil {
		return types.AllocationResult{}, err
	}

	start := time.Now()
	alloc, err := allocation.Allocate(mode, s.shuffler, in.Participants, history, in.SlotCount)
	if err != nil {
		return types.AllocationResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	metrics.RecordAllocation(string(mode), float64(time.Since(start).Microseconds())/1000, len(in.Participants)-len(alloc))

	score := fairness.Score(in.Participants, history)
	metrics.UpdateFairnessScore(score)

	s.log().Debug(ctx, "allocation generated",
		logger.String("mode", string(mode)),
		logger.Int("participants", len(in.Participants)),
		logger.Int("slots", in.SlotCount),
		logger.Int("placed", len(alloc)),
		logger.Int("fairness_score", score),
	)

	return types.AllocationResult{
		Mode:          mode,
		Allocation:    alloc,
		FairnessScore: score,
		Rating:        string(fairness.Rate(score)),
	}, nil
}

// Swap exchanges the slots of entries i and j.
func (s *Service) Swap(_ context.Context, a model.Allocation, i, j int) (model.Allocation, error) {
	out, err := allocation.Swap(a, i, j)
	metrics.RecordSwap(err == nil)
	return out, err
}

// Fairness scores a roster against history, or the stored history when nil.
func (s *Service) Fairness(ctx context.Context, participants []model.Participant, history []model.HistoricalAssignment) (types.FairnessReport, error) {
	history, err := s.historyFor(ctx, participants, history)
	if err != nil {
		return types.FairnessReport{}, err
	}
	score := fairness.Score(participants, history)
	return types.FairnessReport{Score: score, Rating: string(fairness.Rate(score))}, nil
}

// Distribution reports how often a participant occupied each stored slot.
func (s *Service) Distribution(ctx context.Context, participantID string, slotCount int) (types.DistributionReport, error) {
	if strings.TrimSpace(participantID) == "" {
		return types.DistributionReport{}, fmt.Errorf("%w: participant id required", ErrInvalidRequest)
	}
	if slotCount < 1 {
		return types.DistributionReport{}, fmt.Errorf("%w: slot count must be positive", ErrInvalidRequest)
	}
	if slotCount > s.maxSlots {
		return types.DistributionReport{}, fmt.Errorf("%w: %d > %d", ErrTooManySlots, slotCount, s.maxSlots)
	}
	history, err := s.store.History(ctx, participantID)
	if err != nil {
		return types.DistributionReport{}, fmt.Errorf("load history: %w", err)
	}
	return types.DistributionReport{
		ParticipantID: participantID,
		Slots:         fairness.Distribution(participantID, history, slotCount),
	}, nil
}

// SaveAllocation queues an allocation to be recorded as history. Repeating
// an event id is acknowledged as a duplicate without a second write.
func (s *Service) SaveAllocation(ctx context.Context, req model.SaveRequest) (types.SaveStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.SaveStatus{}, ErrNotStarted
	}
	if strings.TrimSpace(req.EventID) == "" {
		return types.SaveStatus{}, fmt.Errorf("%w: event id required", ErrInvalidRequest)
	}
	if req.EventDate.IsZero() {
		return types.SaveStatus{}, fmt.Errorf("%w: event date required", ErrInvalidRequest)
	}
	if err := req.Allocation.Validate(s.maxSlots); err != nil {
		return types.SaveStatus{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if s.deduper.SeenAndRecord(ctx, req.EventID) {
		metrics.RecordSaveDuplicate()
		s.logger.Debug(ctx, "duplicate save", logger.String("event_id", req.EventID))
		return types.SaveStatus{Status: "duplicate", Duplicate: true}, nil
	}

	if !s.queue.Enqueue(ctx, req) {
		s.deduper.Unrecord(ctx, req.EventID)
		metrics.RecordSaveRejected()
		s.logger.Warn(ctx, "save rejected", logger.String("event_id", req.EventID))
		return types.SaveStatus{}, ErrBackpressure
	}

	metrics.RecordSaveAccepted()
	return types.SaveStatus{Status: "accepted"}, nil
}

// releaseFailed forgets an event id whose write failed, so the client can
// save it again instead of being told it is a duplicate.
func (s *Service) releaseFailed(ctx context.Context, it eventqueue.Item, err error) {
	s.deduper.Unrecord(ctx, it.EventID)
	s.log().Warn(ctx, "save failed; event id released for retry",
		logger.String("event_id", it.EventID), logger.Error(err))
}

// History returns stored records, all of them when participantID is empty.
func (s *Service) History(ctx context.Context, participantID string) ([]model.HistoricalAssignment, error) {
	var ids []string
	if participantID != "" {
		ids = []string{participantID}
	}
	return s.store.History(ctx, ids...)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxSlots":    s.maxSlots,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["persisted"] = s.pool.Processed()
		stats["persistFailures"] = s.pool.Failed()
		if n, err := s.store.Count(ctx); err == nil {
			stats["historyRecords"] = n
			metrics.UpdateHistoryRecords(n)
		}
	}
	return stats
}

// MaxSlots returns the configured slot limit.
func (s *Service) MaxSlots() int { return s.maxSlots }

func (s *Service) historyFor(ctx context.Context, participants []model.Participant, history []model.HistoricalAssignment) ([]model.HistoricalAssignment, error) {
	if history != nil || len(participants) == 0 {
		return history, nil
	}
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	stored, err := s.store.History(ctx, ids...)
	if err != nil {
		if errors.Is(err, repository.ErrClosed) {
			return nil, ErrNotStarted
		}
		return nil, fmt.Errorf("load history: %w", err)
	}
	return stored, nil
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}
