package worker

import (
	"time"

	"github.com/okian/lapicque/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithMetricsInterval sets how often the pool refreshes runtime gauges.
// Zero disables the updater.
func WithMetricsInterval(interval time.Duration) PoolOption {
	return func(p *Pool) {
		if interval >= 0 {
			p.metricsInterval = interval
		}
	}
}

// WithPoolLogger sets a custom logger for the pool.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
