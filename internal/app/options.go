package service

import (
	"time"

	"github.com/okian/lapicque/internal/adapters/ticker"
	"github.com/okian/lapicque/internal/adapters/topology"
	"github.com/okian/lapicque/internal/domain/neuron"
	"github.com/okian/lapicque/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTickInterval sets the neuron tick period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithFrameInterval sets the snapshot period.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.frameInterval = d
		}
	}
}

// WithQueueSize sets the maximum number of pending stimuli.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many stimulus ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithTopology sets the network built on Start.
func WithTopology(t *topology.Topology) Option {
	return func(s *Service) {
		if t != nil {
			s.topology = t
		}
	}
}

// WithNeuronParams sets the defaults applied before topology overrides.
func WithNeuronParams(p neuron.Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithSourceFactory replaces the wall clock behind both drivers.
func WithSourceFactory(f ticker.SourceFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.sourceFactory = f
		}
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
