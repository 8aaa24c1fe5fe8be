// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and LAPICQUE_* env vars over the defaults.
// - Validation failures wrap ErrInvalidConfig, load failures ErrLoadConfig.
package config

import (
	"context"
	"time"

	"github.com/okian/lapicque/internal/domain/neuron"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TickIntervalMS is the simulated and wall-clock period of one neuron tick.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// FrameIntervalMS is the period of the frame event that snapshots state.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// StimulusQueueSize bounds the in-memory stimulus queue.
	StimulusQueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the number of remembered stimulus ids.
	DedupeSize int `koanf:"dedupe_size"`

	// TopologyPath points at a YAML or TOML network description. When empty
	// a ring of NeuronCount neurons is built.
	TopologyPath string `koanf:"topology_path"`

	// NeuronCount sizes the default ring topology.
	NeuronCount int `koanf:"neuron_count"`

	// Neuron defaults, overridable per neuron in the topology file.
	NeuronVoltage         float64 `koanf:"neuron_voltage"`
	NeuronCurrent         float64 `koanf:"neuron_current"`
	NeuronResistance      float64 `koanf:"neuron_resistance"`
	NeuronTimeConstant    float64 `koanf:"neuron_time_constant"`
	NeuronThreshold       float64 `koanf:"neuron_threshold"`
	NeuronResetVoltage    float64 `koanf:"neuron_reset_voltage"`
	NeuronRefractoryTicks int     `koanf:"neuron_refractory_ticks"`
	NeuronDischarge       float64 `koanf:"neuron_discharge"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	p := neuron.DefaultParams()
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		TickIntervalMS:        int(neuron.DefaultTickIntervalMS),
		FrameIntervalMS:       100,
		StimulusQueueSize:     1024,
		DedupeSize:            10_000,
		NeuronCount:           2,
		NeuronVoltage:         p.Voltage,
		NeuronCurrent:         p.Current,
		NeuronResistance:      p.Resistance,
		NeuronTimeConstant:    p.TimeConstant,
		NeuronThreshold:       p.Threshold,
		NeuronResetVoltage:    p.ResetVoltage,
		NeuronRefractoryTicks: p.RefractoryPeriod,
		NeuronDischarge:       p.Discharge,
	}
}

// TickInterval returns the tick period as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// FrameInterval returns the frame period as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// NeuronParams returns the neuron defaults described by the config.
func (c *Config) NeuronParams() neuron.Params {
	return neuron.Params{
		Voltage:          c.NeuronVoltage,
		Current:          c.NeuronCurrent,
		Resistance:       c.NeuronResistance,
		TimeConstant:     c.NeuronTimeConstant,
		Threshold:        c.NeuronThreshold,
		ResetVoltage:     c.NeuronResetVoltage,
		RefractoryPeriod: c.NeuronRefractoryTicks,
		Discharge:        c.NeuronDischarge,
		TickIntervalMS:   float64(c.TickIntervalMS),
	}
}
