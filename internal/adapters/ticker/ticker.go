// Package ticker drives a named event at a fixed interval.
//
// A Driver owns no simulation state. Each period it dispatches its event with
// a single Tick argument so subscribers can read the step size without
// depending on wall-clock time.
package ticker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/lapicque/internal/domain/event"
	"github.com/okian/lapicque/pkg/logger"
	"github.com/okian/lapicque/pkg/metrics"
)

// DefaultInterval is the neuronal step used when no interval is configured.
const DefaultInterval = 10 * time.Millisecond

// Tick is the argument passed to subscribers on every dispatch.
type Tick struct {
	Seq      uint64
	Interval time.Duration
}

// Millis returns the interval in milliseconds.
func (t Tick) Millis() float64 {
	return float64(t.Interval) / float64(time.Millisecond)
}

// Dispatcher is the part of the event registry a driver needs.
type Dispatcher interface {
	Dispatch(name event.Name, args ...any) error
}

// Source is a periodic signal. The real implementation wraps time.Ticker.
type Source interface {
	C() <-chan time.Time
	Stop()
}

// SourceFactory creates a Source firing every interval.
type SourceFactory func(interval time.Duration) Source

type wallSource struct {
	t *time.Ticker
}

func (s wallSource) C() <-chan time.Time { return s.t.C }
func (s wallSource) Stop()               { s.t.Stop() }

// WallClock is the default SourceFactory.
func WallClock(interval time.Duration) Source {
	return wallSource{t: time.NewTicker(interval)}
}

// Driver dispatches one event per period.
type Driver struct {
	dispatcher Dispatcher
	name       event.Name
	interval   time.Duration
	newSource  SourceFactory
	logger     logger.Logger

	seq     atomic.Uint64
	running atomic.Bool
}

// New creates a driver for the event name on dispatcher.
func New(dispatcher Dispatcher, name event.Name, opts ...Option) *Driver {
	d := &Driver{
		dispatcher: dispatcher,
		name:       name,
		interval:   DefaultInterval,
		newSource:  WallClock,
		logger:     logger.Get().Named("ticker"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Name returns the event the driver dispatches.
func (d *Driver) Name() event.Name { return d.name }

// Interval returns the configured period.
func (d *Driver) Interval() time.Duration { return d.interval }

// Seq returns the number of ticks dispatched so far.
func (d *Driver) Seq() uint64 { return d.seq.Load() }

// Step dispatches a single tick synchronously.
func (d *Driver) Step() error {
	t := Tick{Seq: d.seq.Add(1), Interval: d.interval}
	if err := d.dispatcher.Dispatch(d.name, t); err != nil {
		metrics.RecordErrorByComponent("ticker", "dispatch")
		return fmt.Errorf("%w: %s: %w", ErrDispatch, d.name, err)
	}
	metrics.RecordTick(string(d.name))
	return nil
}

// StepN dispatches n ticks back to back and stops at the first failure.
func (d *Driver) StepN(n int) error {
	for i := 0; i < n; i++ {
		if err := d.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Run dispatches a tick every interval until ctx is done or a dispatch fails.
// A cancelled context is not an error.
func (d *Driver) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer d.running.Store(false)

	src := d.newSource(d.interval)
	defer src.Stop()

	d.logger.Info(ctx, "tick driver started",
		logger.String("event", string(d.name)),
		logger.Duration("interval", d.interval),
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info(context.Background(), "tick driver stopped",
				logger.String("event", string(d.name)),
				logger.Uint64("ticks", d.seq.Load()),
			)
			return nil
		case <-src.C():
			if err := d.Step(); err != nil {
				d.logger.Error(ctx, "tick dispatch failed",
					logger.String("event", string(d.name)),
					logger.Error(err),
				)
				return err
			}
		}
	}
}
