package service

import (
	"github.com/okian/pegsync/internal/adapters/repository"
	"github.com/okian/pegsync/internal/domain/allocation"
	"github.com/okian/pegsync/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets how many saves may wait for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event ids are remembered for idempotent saves.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxSlots caps the slot count a request may ask for.
func WithMaxSlots(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSlots = n
		}
	}
}

// WithStore sets the history store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRandomSeed makes random allocations reproducible. Zero keeps the
// process-wide generator.
func WithRandomSeed(seed uint64) Option {
	return func(s *Service) {
		if seed != 0 {
			s.shuffler = &lockedShuffler{src: allocation.NewSource(seed)}
		}
	}
}

// WithShuffler sets the random source directly. It must be safe for
// concurrent use.
func WithShuffler(src allocation.Shuffler) Option {
	return func(s *Service) {
		s.shuffler = src
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
