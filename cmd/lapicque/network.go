package main

import (
	"fmt"

	"github.com/okian/lapicque/internal/adapters/topology"
	service "github.com/okian/lapicque/internal/app"
	"github.com/okian/lapicque/internal/config"
	"github.com/okian/lapicque/pkg/logger"
)

// loadTopology reads the topology file when path is set and otherwise builds
// a ring of count neurons.
func loadTopology(path string, count int) (*topology.Topology, error) {
	if path == "" {
		return topology.Ring(count), nil
	}
	t, err := topology.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load topology %s: %w", path, err)
	}
	return t, nil
}

// newService builds an unstarted service from cfg.
func newService(cfg *config.Config, topo *topology.Topology, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithTickInterval(cfg.TickInterval()),
		service.WithFrameInterval(cfg.FrameInterval()),
		service.WithQueueSize(cfg.StimulusQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithNeuronParams(cfg.NeuronParams()),
		service.WithTopology(topo),
	}
	return service.New(append(base, opts...)...)
}
