package neuron

import "github.com/okian/lapicque/pkg/metrics"

// Axon is a directed connection from its source neuron to a list of targets.
// Excitatory axons add the discharge to each target, inhibitory ones
// subtract it.
type Axon struct {
	source     *Neuron
	targets    []*Neuron
	excitatory bool
}

// OnActionPotential delivers the signed voltage to every target in order.
func (a *Axon) OnActionPotential(voltage float64) {
	delta := voltage
	if !a.excitatory {
		delta = -voltage
	}
	for _, t := range a.targets {
		t.OnNeuronExcitate(delta)
		metrics.RecordExcitation(a.excitatory)
	}
}

// AddTarget appends a target neuron.
func (a *Axon) AddTarget(target *Neuron) {
	a.targets = append(a.targets, target)
}

// Targets returns the target neurons in delivery order.
func (a *Axon) Targets() []*Neuron {
	out := make([]*Neuron, len(a.targets))
	copy(out, a.targets)
	return out
}

// IsExcitatory reports the polarity of the axon.
func (a *Axon) IsExcitatory() bool { return a.excitatory }

// Source returns the owning neuron.
func (a *Axon) Source() *Neuron { return a.source }
