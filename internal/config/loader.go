package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "LAPICQUE_"
	envFileVar = "LAPICQUE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if LAPICQUE_CONFIG is set
//  3. env (prefix LAPICQUE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LAPICQUE_TICK_INTERVAL_MS -> tick_interval_ms (flat keys).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.FrameIntervalMS <= 0:
		return fmt.Errorf("%w: frame_interval_ms must be positive", ErrInvalidConfig)
	case c.NeuronTimeConstant <= 0:
		return fmt.Errorf("%w: neuron_time_constant must be positive", ErrInvalidConfig)
	case c.NeuronRefractoryTicks < 0:
		return fmt.Errorf("%w: neuron_refractory_ticks must not be negative", ErrInvalidConfig)
	case c.NeuronCount < 0:
		return fmt.Errorf("%w: neuron_count must not be negative", ErrInvalidConfig)
	}
	return nil
}
