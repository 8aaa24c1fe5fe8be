// Package service wires the event registry, the neuron network and the two
// drivers into the simulation the HTTP API and CLI run.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	stimqueue "github.com/okian/lapicque/internal/adapters/mq/queue"
	"github.com/okian/lapicque/internal/adapters/repository"
	"github.com/okian/lapicque/internal/adapters/ticker"
	"github.com/okian/lapicque/internal/adapters/topology"
	"github.com/okian/lapicque/internal/adapters/worker"
	"github.com/okian/lapicque/internal/domain/dedupe"
	"github.com/okian/lapicque/internal/domain/event"
	"github.com/okian/lapicque/internal/domain/model"
	"github.com/okian/lapicque/internal/domain/network"
	"github.com/okian/lapicque/internal/domain/neuron"
	"github.com/okian/lapicque/pkg/logger"
	"github.com/okian/lapicque/pkg/metrics"
)

// Event names created on Start.
const (
	TickEvent  event.Name = "neuron.tick"
	FrameEvent event.Name = "frame"
)

const (
	defaultFrameInterval = 100 * time.Millisecond
	defaultQueueSize     = 1024
	defaultDedupeSize    = 10_000
	defaultNeuronCount   = 2
)

// syncDispatcher serializes dispatch passes from both drivers, so the tick
// and frame events never interleave and readers holding mu see a
// consistent network.
type syncDispatcher struct {
	mu  *sync.Mutex
	reg *event.Registry
}

func (d syncDispatcher) Dispatch(name event.Name, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.Dispatch(name, args...)
}

// Service runs one network.
type Service struct {
	mu  sync.RWMutex // lifecycle
	sim sync.Mutex   // registry, network and latest

	// Configuration
	tickInterval  time.Duration
	frameInterval time.Duration
	queueSize     int
	dedupeSize    int
	topology      *topology.Topology
	params        neuron.Params
	sourceFactory ticker.SourceFactory

	// Core components
	registry *event.Registry
	network  *network.Network
	queue    *stimqueue.InMemoryQueue
	deduper  dedupe.Deduper
	ticks    *ticker.Driver
	frames   *ticker.Driver
	latest   model.Snapshot
	ranking  *repository.TreapStore

	// State
	started   bool
	cancelRun context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tickInterval:  ticker.DefaultInterval,
		frameInterval: defaultFrameInterval,
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		topology:      topology.Ring(defaultNeuronCount),
		params:        neuron.DefaultParams(),
		sourceFactory: ticker.WallClock,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the registry and network. Neurons do not move until Run or
// Step drives them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if err := s.topology.Validate(); err != nil {
		return err
	}

	reg := event.NewRegistry()
	tick, err := reg.CreateEvent(TickEvent)
	if err != nil {
		return err
	}
	frame, err := reg.CreateEvent(FrameEvent)
	if err != nil {
		return err
	}

	s.queue = stimqueue.NewInMemoryQueue(stimqueue.WithCapacity(s.queueSize))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	// Stimuli must land before any neuron integrates, so the drain
	// subscribes ahead of the network.
	if err := tick.Subscribe(s, applyStimuli); err != nil {
		return err
	}

	params := s.params
	params.TickIntervalMS = float64(s.tickInterval) / float64(time.Millisecond)
	net := network.New(tick)
	if err := s.topology.Apply(net, params); err != nil {
		return fmt.Errorf("build network: %w", err)
	}

	if err := frame.Subscribe(s, captureFrame); err != nil {
		return err
	}

	dispatcher := syncDispatcher{mu: &s.sim, reg: reg}
	s.ticks = ticker.New(dispatcher, TickEvent,
		ticker.WithInterval(s.tickInterval),
		ticker.WithSourceFactory(s.sourceFactory),
	)
	s.frames = ticker.New(dispatcher, FrameEvent,
		ticker.WithInterval(s.frameInterval),
		ticker.WithSourceFactory(s.sourceFactory),
	)

	s.sim.Lock()
	s.registry = reg
	s.network = net
	s.ranking = repository.NewTreapStore()
	s.latest = model.Snapshot{At: time.Now(), Neurons: net.States()}
	s.recordActivity()
	s.sim.Unlock()

	s.started = true
	s.logger.Info(ctx, "simulation started",
		logger.Int("neurons", net.Len()),
		logger.Duration("tickInterval", s.tickInterval),
		logger.Duration("frameInterval", s.frameInterval),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Run drives the tick and frame events in real time until ctx is done, Stop
// is called, or a dispatch fails.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	pool := worker.NewPool()
	pool.Add("tick", s.ticks)
	pool.Add("frame", s.frames)
	s.mu.Unlock()
	defer cancel()

	pool.Start(runCtx)
	err := pool.Wait(runCtx)
	cancel()
	return errors.Join(err, pool.Stop(context.Background()))
}

// Step advances the network by n ticks and then captures one frame.
func (s *Service) Step(n int) error {
	s.mu.RLock()
	started, ticks, frames := s.started, s.ticks, s.frames
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	if err := ticks.StepN(n); err != nil {
		return err
	}
	return frames.Step()
}

// Stop detaches the neurons and rejects further stimuli. A running Run
// returns.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping simulation...")

	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}

	s.sim.Lock()
	if err := s.network.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing network", logger.Error(err))
	}
	s.sim.Unlock()

	_ = s.queue.Close()

	s.started = false
	s.logger.Info(context.Background(), "simulation stopped")
}

// Submit validates a stimulus and queues it for the next tick. A stimulus
// whose id was already accepted is acknowledged as a duplicate and dropped.
// An empty id is replaced by a random UUID.
func (s *Service) Submit(ctx context.Context, st model.Stimulus) (model.Receipt, error) { //nolint:gocritic // hugeParam: stimulus is copied into the queue
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Receipt{}, ErrNotStarted
	}

	kind, err := model.ParseStimulusKind(string(st.Kind))
	if err != nil {
		return model.Receipt{}, err
	}
	st.Kind = kind
	if math.IsNaN(st.Value) || math.IsInf(st.Value, 0) {
		return model.Receipt{}, fmt.Errorf("%w: value must be finite", ErrInvalidStimulus)
	}

	s.sim.Lock()
	_, err = s.network.Neuron(st.NeuronID)
	s.sim.Unlock()
	if err != nil {
		return model.Receipt{}, err
	}

	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, st.ID) {
		metrics.RecordStimulusDuplicate()
		s.logger.Debug(ctx, "duplicate stimulus", logger.String("stimulusID", st.ID))
		return model.Receipt{ID: st.ID, Duplicate: true}, nil
	}

	st.Received = time.Now()
	if err := s.queue.Enqueue(ctx, st); err != nil {
		s.deduper.Unrecord(ctx, st.ID)
		return model.Receipt{ID: st.ID}, err
	}
	return model.Receipt{ID: st.ID}, nil
}

// Snapshot returns the state captured on the latest frame.
func (s *Service) Snapshot() (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.network == nil {
		return model.Snapshot{}, ErrNotStarted
	}
	s.sim.Lock()
	defer s.sim.Unlock()
	return s.latest, nil
}

// Neuron returns the live state of one neuron.
func (s *Service) Neuron(id string) (neuron.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.network == nil {
		return neuron.State{}, ErrNotStarted
	}
	s.sim.Lock()
	defer s.sim.Unlock()
	n, err := s.network.Neuron(id)
	if err != nil {
		return neuron.State{}, err
	}
	return n.State(), nil
}

// TopNeurons returns the n neurons that fired most often as of the latest
// frame.
func (s *Service) TopNeurons(ctx context.Context, n int) ([]repository.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ranking == nil {
		return nil, ErrNotStarted
	}
	return s.ranking.TopN(ctx, n)
}

// NeuronRank returns the activity rank of one neuron as of the latest frame.
func (s *Service) NeuronRank(ctx context.Context, id string) (repository.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ranking == nil {
		return repository.Entry{}, ErrNotStarted
	}
	entry, err := s.ranking.Rank(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Entry{}, fmt.Errorf("%w: %s", network.ErrNeuronNotFound, id)
	}
	return entry, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"tickIntervalMs":  s.tickInterval.Milliseconds(),
		"frameIntervalMs": s.frameInterval.Milliseconds(),
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
	}

	if s.network == nil {
		return stats
	}

	s.sim.Lock()
	states := s.network.States()
	refractory := s.network.Refractory()
	subscribers := make(map[string]int)
	for _, name := range s.registry.Events() {
		count, _ := s.registry.Subscribers(name)
		subscribers[string(name)] = count
	}
	s.sim.Unlock()

	var spikes uint64
	for _, st := range states {
		spikes += st.Spikes
	}
	queueLen := s.queue.Len(context.Background())

	stats["neurons"] = len(states)
	stats["ticks"] = s.ticks.Seq()
	stats["frames"] = s.frames.Seq()
	stats["spikes"] = spikes
	stats["refractory"] = refractory
	stats["queueLength"] = queueLen
	stats["dedupeEntries"] = s.deduper.Size()
	stats["subscribers"] = subscribers
	stats["ranked"] = s.ranking.Count(context.Background())

	metrics.UpdateRefractoryNeurons(refractory)
	metrics.UpdateNeuronCount(len(states))

	return stats
}

// applyStimuli runs first on every tick and applies everything queued
// since the previous one.
func applyStimuli(self any, _ ...any) {
	s := self.(*Service)
	for _, st := range s.queue.Drain(context.Background()) {
		var err error
		switch st.Kind {
		case model.StimulusCurrent:
			err = s.network.SetCurrent(st.NeuronID, st.Value)
		case model.StimulusExcite:
			err = s.network.Excite(st.NeuronID, st.Value)
		default:
			err = fmt.Errorf("%w: kind %q", ErrInvalidStimulus, st.Kind)
		}
		if err != nil {
			metrics.RecordErrorByComponent("service", "stimulus")
			s.logger.Warn(context.Background(), "stimulus dropped",
				logger.String("stimulusID", st.ID),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordStimulusApplied(string(st.Kind))
	}
}

// captureFrame stores the network state for readers.
func captureFrame(self any, args ...any) {
	s := self.(*Service)
	var frame uint64
	if len(args) > 0 {
		if t, ok := args[0].(ticker.Tick); ok {
			frame = t.Seq
		}
	}
	s.latest = model.Snapshot{
		Frame:   frame,
		Tick:    s.ticks.Seq(),
		At:      time.Now(),
		Neurons: s.network.States(),
	}
	s.recordActivity()
	metrics.UpdateRefractoryNeurons(s.network.Refractory())
}

// recordActivity feeds the latest spike counts into the ranking.
func (s *Service) recordActivity() {
	ctx := context.Background()
	for _, st := range s.latest.Neurons {
		if _, err := s.ranking.Update(ctx, st.ID, st.Spikes); err != nil {
			s.logger.Warn(ctx, "ranking update failed", logger.String("neuronID", st.ID), logger.Error(err))
		}
	}
}
