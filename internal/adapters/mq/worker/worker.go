// Package worker persists accepted allocations off the request path.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/pegsync/internal/adapters/mq/queue"
	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/pkg/logger"
	"github.com/okian/pegsync/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Persister writes one event's history records.
type Persister interface {
	SaveEvent(ctx context.Context, eventID string, records []model.HistoricalAssignment) error
}

// counter is implemented by persisters that can report their record count.
type counter interface {
	Count(ctx context.Context) (int, error)
}

// Queue defines how workers receive save requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Item
}

// Worker drains the queue into a Persister.
type Worker interface {
	// Run processes items until ctx is canceled, Shutdown is called or the
	// queue is closed and drained.
	Run(ctx context.Context)

	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	persister Persister
	name      string

	processed atomic.Int64
	failed    atomic.Int64

	onFailure func(ctx context.Context, it queue.Item, err error)

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, p Persister, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		persister: p,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			if err := w.persist(ctx, it); err != nil {
				w.logger.Error(ctx, "persist failed", logger.String("event_id", it.EventID), logger.Error(err))
			}
		}
	}
}

func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many items this worker persisted successfully.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns how many items this worker could not persist.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) persist(ctx context.Context, it queue.Item) error {
	start := time.Now()
	err := w.persister.SaveEvent(ctx, it.EventID, it.History())
	latency := float64(time.Since(start).Milliseconds())

	metrics.RecordPersist(latency, err)
	metrics.RecordWorkerProcessingLatency(latency)

	if err != nil {
		w.failed.Add(1)
		metrics.RecordErrorByComponent("worker", "persist_error")
		if w.onFailure != nil {
			w.onFailure(ctx, it, err)
		}
		return fmt.Errorf("save event %s: %w", it.EventID, err)
	}
	w.processed.Add(1)

	if c, ok := w.persister.(counter); ok {
		if n, cerr := c.Count(ctx); cerr == nil {
			metrics.UpdateHistoryRecords(n)
		}
	}
	w.logger.Debug(ctx, "event persisted",
		logger.String("event_id", it.EventID),
		logger.Int("records", len(it.Allocation)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool. workerCount < 1 means one worker per CPU. opts
// apply to every worker; each worker keeps its own name.
func NewPool(workerCount int, q Queue, p Persister, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		pool.workers[i] = NewInMemoryWorker(q, p, append(slices.Clip(opts), WithName("worker-"+strconv.Itoa(i)))...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed sums successful persists across workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Failed sums failed persists across workers.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Failed()
	}
	return n
}

// Shutdown closes the queue and waits for workers to drain what is buffered.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
