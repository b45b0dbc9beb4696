package worker

import (
	"context"

	"github.com/okian/pegsync/internal/adapters/mq/queue"
	"github.com/okian/pegsync/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithFailureHandler registers fn to run after an item could not be
// persisted, so the caller can release anything it holds for that item.
func WithFailureHandler(fn func(ctx context.Context, it queue.Item, err error)) Option {
	return func(w *InMemoryWorker) {
		w.onFailure = fn
	}
}
