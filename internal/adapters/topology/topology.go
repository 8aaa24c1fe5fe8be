// Package topology loads declarative network descriptions from YAML or
// TOML and builds them into a network.
package topology

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/okian/lapicque/internal/domain/network"
	"github.com/okian/lapicque/internal/domain/neuron"
	"gopkg.in/yaml.v3"
)

// Format names a supported encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Overrides holds per-neuron parameter changes. Nil fields keep the default.
type Overrides struct {
	Voltage          *float64 `yaml:"voltage,omitempty" toml:"voltage,omitempty"`
	Current          *float64 `yaml:"current,omitempty" toml:"current,omitempty"`
	Resistance       *float64 `yaml:"resistance,omitempty" toml:"resistance,omitempty"`
	TimeConstant     *float64 `yaml:"time_constant,omitempty" toml:"time_constant,omitempty"`
	Threshold        *float64 `yaml:"threshold,omitempty" toml:"threshold,omitempty"`
	ResetVoltage     *float64 `yaml:"reset_voltage,omitempty" toml:"reset_voltage,omitempty"`
	RefractoryPeriod *int     `yaml:"refractory_period,omitempty" toml:"refractory_period,omitempty"`
	Discharge        *float64 `yaml:"discharge,omitempty" toml:"discharge,omitempty"`
}

// NeuronSpec declares one neuron.
type NeuronSpec struct {
	ID        string `yaml:"id" toml:"id"`
	Overrides `yaml:",inline"`
}

// AxonSpec declares one axon. Excitatory defaults to true when omitted.
type AxonSpec struct {
	From       string   `yaml:"from" toml:"from"`
	To         []string `yaml:"to" toml:"to"`
	Excitatory *bool    `yaml:"excitatory,omitempty" toml:"excitatory,omitempty"`
}

// IsExcitatory resolves the default polarity.
func (a AxonSpec) IsExcitatory() bool {
	return a.Excitatory == nil || *a.Excitatory
}

// Topology is a full network description.
type Topology struct {
	Neurons []NeuronSpec `yaml:"neurons" toml:"neurons"`
	Axons   []AxonSpec   `yaml:"axons" toml:"axons"`
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and validates a topology file.
func Load(path string) (*Topology, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read topology %s: %w", path, err)
	}
	t, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("load topology %s: %w", path, err)
	}
	return t, nil
}

// Decode reads a topology in the given format and validates it.
func Decode(r io.Reader, format Format) (*Topology, error) {
	var t Topology
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&t)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %s", ErrInvalidTopology, undecoded[0])
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Encode writes t in the given format.
func Encode(w io.Writer, t *Topology, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(t); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Validate checks ids and axon endpoints. Neurons without an id are
// allowed and get one when applied, but cannot be referenced by axons.
func (t *Topology) Validate() error {
	ids := make(map[string]struct{}, len(t.Neurons))
	for i, n := range t.Neurons {
		if n.TimeConstant != nil && *n.TimeConstant <= 0 {
			return fmt.Errorf("%w: neuron %d: time_constant must be positive", ErrInvalidTopology, i)
		}
		if n.RefractoryPeriod != nil && *n.RefractoryPeriod < 0 {
			return fmt.Errorf("%w: neuron %d: refractory_period must not be negative", ErrInvalidTopology, i)
		}
		if n.ID == "" {
			continue
		}
		if _, ok := ids[n.ID]; ok {
			return fmt.Errorf("%w: neuron %d: duplicate id %q", ErrInvalidTopology, i, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for i, a := range t.Axons {
		if _, ok := ids[a.From]; !ok {
			return fmt.Errorf("%w: axon %d: unknown source %q", ErrInvalidTopology, i, a.From)
		}
		if len(a.To) == 0 {
			return fmt.Errorf("%w: axon %d: no targets", ErrInvalidTopology, i)
		}
		for _, to := range a.To {
			if _, ok := ids[to]; !ok {
				return fmt.Errorf("%w: axon %d: unknown target %q", ErrInvalidTopology, i, to)
			}
		}
	}
	return nil
}

// Apply adds every neuron to net in declaration order, then wires the
// axons. defaults is applied to each neuron before its overrides.
func (t *Topology) Apply(net *network.Network, defaults neuron.Params) error {
	for _, spec := range t.Neurons {
		p := spec.Overrides.apply(defaults)
		if _, err := net.Add(spec.ID, neuron.WithParams(p)); err != nil {
			return err
		}
	}
	for _, a := range t.Axons {
		if _, err := net.Connect(a.From, a.IsExcitatory(), a.To...); err != nil {
			return err
		}
	}
	return nil
}

func (o Overrides) apply(p neuron.Params) neuron.Params {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setF(&p.Voltage, o.Voltage)
	setF(&p.Current, o.Current)
	setF(&p.Resistance, o.Resistance)
	setF(&p.TimeConstant, o.TimeConstant)
	setF(&p.Threshold, o.Threshold)
	setF(&p.ResetVoltage, o.ResetVoltage)
	setF(&p.Discharge, o.Discharge)
	if o.RefractoryPeriod != nil {
		p.RefractoryPeriod = *o.RefractoryPeriod
	}
	return p
}

// Ring describes count neurons n0..n(count-1), each exciting the next and
// the last exciting the first. A single neuron gets no axon.
func Ring(count int) *Topology {
	t := &Topology{}
	for i := 0; i < count; i++ {
		t.Neurons = append(t.Neurons, NeuronSpec{ID: fmt.Sprintf("n%d", i)})
	}
	if count < 2 {
		return t
	}
	for i := 0; i < count; i++ {
		t.Axons = append(t.Axons, AxonSpec{
			From: fmt.Sprintf("n%d", i),
			To:   []string{fmt.Sprintf("n%d", (i+1)%count)},
		})
	}
	return t
}
