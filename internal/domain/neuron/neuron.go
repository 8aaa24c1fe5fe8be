// Package neuron implements a leaky integrate-and-fire neuron driven by a
// tick event, and the axons that carry its spikes to other neurons.
//
// The membrane follows dv/dt = (R*I - v)/tau, discretized with a fixed
// forward step. A Neuron is not safe for concurrent use; all updates are
// expected to happen inside one synchronous dispatch pass.
package neuron

import (
	"github.com/okian/lapicque/internal/domain/event"
	"github.com/okian/lapicque/pkg/metrics"
)

// Step is implemented by tick payloads that carry their own interval.
type Step interface {
	Millis() float64
}

// State is a read-only view of a neuron for visualization and APIs.
type State struct {
	ID         string  `json:"id"`
	Voltage    float64 `json:"voltage"`
	Current    float64 `json:"current"`
	Refractory int     `json:"refractory"`
	Firing     bool    `json:"firing"`
	Spikes     uint64  `json:"spikes"`
	Axons      int     `json:"axons"`
}

// Neuron holds membrane state and its outgoing axons.
type Neuron struct {
	id     string
	params Params

	voltage    float64
	current    float64
	refractory int
	firing     bool
	spikes     uint64
	axons      []*Axon

	tick     event.Handle
	attached bool
}

// New creates a neuron and subscribes it to tick. It fails with
// event.ErrUnknownEvent if tick is a zero handle.
func New(tick event.Handle, opts ...Option) (*Neuron, error) {
	n := &Neuron{
		params: DefaultParams(),
		tick:   tick,
	}

	for _, opt := range opts {
		opt(n)
	}

	n.voltage = n.params.Voltage
	n.current = n.params.Current

	if err := tick.Subscribe(n, onTick); err != nil {
		return nil, err
	}
	n.attached = true

	return n, nil
}

// onTick is the tick callback; self is the subscribing neuron.
func onTick(self any, args ...any) {
	n := self.(*Neuron)
	dt := n.params.TickIntervalMS
	if len(args) > 0 {
		if s, ok := args[0].(Step); ok && s.Millis() > 0 {
			dt = s.Millis()
		}
	}
	n.Tick(dt)
}

// Tick advances the neuron by dt milliseconds.
//
// While refractory the counter is decremented and nothing else happens.
// Otherwise the voltage is integrated first, then compared to the
// threshold, and only then reset and fired.
func (n *Neuron) Tick(dt float64) {
	n.firing = false

	if n.refractory > 0 {
		n.refractory--
		return
	}

	p := &n.params
	n.voltage = (p.Resistance*n.current-n.voltage)/p.TimeConstant*dt + n.voltage

	if n.voltage >= p.Threshold {
		n.voltage = p.ResetVoltage
		n.refractory = p.RefractoryPeriod
		n.firing = true
		n.spikes++
		n.fire()
	}
}

func (n *Neuron) fire() {
	metrics.RecordSpike()
	for _, a := range n.axons {
		a.OnActionPotential(n.params.Discharge)
	}
}

// OnNeuronExcitate adds delta to the membrane voltage. Excitation lands
// even while the neuron is refractory.
func (n *Neuron) OnNeuronExcitate(delta float64) {
	n.voltage += delta
}

// SetCurrent changes the input current used by the next integration step.
func (n *Neuron) SetCurrent(current float64) {
	n.current = current
}

// Connect creates an axon owned by n that delivers spikes to targets.
func (n *Neuron) Connect(excitatory bool, targets ...*Neuron) *Axon {
	a := &Axon{
		source:     n,
		excitatory: excitatory,
	}
	for _, t := range targets {
		a.AddTarget(t)
	}
	n.axons = append(n.axons, a)
	return a
}

// Close unsubscribes the neuron from its tick event. It is safe to call
// more than once.
func (n *Neuron) Close() error {
	if !n.attached {
		return nil
	}
	if err := n.tick.Unsubscribe(n); err != nil {
		return err
	}
	n.attached = false
	return nil
}

// ID returns the neuron identifier.
func (n *Neuron) ID() string { return n.id }

// Params returns the configuration the neuron was built with.
func (n *Neuron) Params() Params { return n.params }

// Voltage returns the membrane voltage.
func (n *Neuron) Voltage() float64 { return n.voltage }

// Current returns the input current.
func (n *Neuron) Current() float64 { return n.current }

// Refractory returns the ticks remaining in the refractory period.
func (n *Neuron) Refractory() int { return n.refractory }

// Firing reports whether the neuron fired on its most recent tick.
func (n *Neuron) Firing() bool { return n.firing }

// Axons returns the outgoing axons in creation order.
func (n *Neuron) Axons() []*Axon {
	out := make([]*Axon, len(n.axons))
	copy(out, n.axons)
	return out
}

// State returns a snapshot of the neuron.
func (n *Neuron) State() State {
	return State{
		ID:         n.id,
		Voltage:    n.voltage,
		Current:    n.current,
		Refractory: n.refractory,
		Firing:     n.firing,
		Spikes:     n.spikes,
		Axons:      len(n.axons),
	}
}
