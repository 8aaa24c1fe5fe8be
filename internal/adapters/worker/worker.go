// Package worker runs long-lived drivers on their own goroutines and stops
// them together.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/lapicque/pkg/logger"
	"github.com/okian/lapicque/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Runner is a blocking loop that returns when ctx is done or it fails.
// A ticker.Driver is a Runner.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// Worker runs one Runner.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for its runner to return.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker on a goroutine.
type InMemoryWorker struct {
	runner Runner
	name   string

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
	err          error

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Name returns the worker name.
func (w *InMemoryWorker) Name() string { return w.name }

// Run executes the runner until it returns. Cancellation is not an error.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdown:
			cancel()
		case <-runCtx.Done():
		}
	}()

	err := w.runner.Run(runCtx)
	if err != nil && !errors.Is(err, context.Canceled) {
		w.err = err
		metrics.RecordErrorByComponent("worker", w.name)
		w.logger.Error(ctx, "worker stopped with error", logger.Error(err))
	}
}

// Done is closed once the runner has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Err returns the runner failure. It is only meaningful after Done.
func (w *InMemoryWorker) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown %s timed out: %w", w.name, ctx.Err())
	}
}

// Pool manages multiple workers. Workers are added before Start.
type Pool struct {
	workers []*InMemoryWorker
	exited  chan *InMemoryWorker

	metricsInterval time.Duration
	started         bool

	// Shutdown control
	shutdown chan struct{}
	once     sync.Once

	// Logging
	logger logger.Logger
}

// NewPool creates an empty worker pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		metricsInterval: metricsUpdateInterval,
		shutdown:        make(chan struct{}),
		logger:          logger.Get().Named("worker-pool"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Add registers a named runner. It has no effect after Start.
func (p *Pool) Add(name string, runner Runner) {
	if p.started {
		return
	}
	p.workers = append(p.workers, NewInMemoryWorker(runner, WithName(name)))
}

// Len returns the number of workers.
func (p *Pool) Len() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if p.started {
		return
	}
	p.started = true
	p.exited = make(chan *InMemoryWorker, len(p.workers))

	for _, w := range p.workers {
		go func(w *InMemoryWorker) {
			w.Run(ctx)
			p.exited <- w
		}(w)
	}

	if p.metricsInterval > 0 {
		go p.startMetricsUpdater(ctx)
	}

	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Wait blocks until ctx is done or any worker returns, and reports that
// worker's error. A worker that returns cleanly yields nil.
func (p *Pool) Wait(ctx context.Context) error {
	if !p.started || len(p.workers) == 0 {
		<-ctx.Done()
		return nil
	}
	select {
	case <-ctx.Done():
		return nil
	case w := <-p.exited:
		// Put it back so a later Wait sees the pool as finished too.
		p.exited <- w
		if err := w.Err(); err != nil {
			return fmt.Errorf("worker %s: %w", w.Name(), err)
		}
		return nil
	}
}

// Stop shuts every worker down and waits for them, bounded by ctx.
func (p *Pool) Stop(ctx context.Context) error {
	p.once.Do(func() { close(p.shutdown) })

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, poolShutdownTimeout)
		defer cancel()
	}

	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.logger.Info(ctx, "worker pool stopped", logger.Int("workers", len(p.workers)))
	return errors.Join(errs...)
}

// startMetricsUpdater refreshes runtime gauges until the pool stops.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(p.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
