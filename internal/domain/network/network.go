// Package network groups neurons that share one tick event and addresses
// them by id.
package network

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/lapicque/internal/domain/event"
	"github.com/okian/lapicque/internal/domain/neuron"
	"github.com/okian/lapicque/pkg/metrics"
)

// Network owns a set of neurons in insertion order. Insertion order is the
// order the neurons subscribed to the tick event, so it is also the order
// they integrate within a tick.
//
// Network is not safe for concurrent use.
type Network struct {
	tick event.Handle

	byID  map[string]*neuron.Neuron
	order []*neuron.Neuron
}

// New creates an empty network whose neurons subscribe to tick.
func New(tick event.Handle) *Network {
	return &Network{
		tick: tick,
		byID: make(map[string]*neuron.Neuron),
	}
}

// Add creates a neuron and subscribes it to the tick event. An empty id is
// replaced by a random UUID.
func (n *Network) Add(id string, opts ...neuron.Option) (*neuron.Neuron, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := n.byID[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNeuron, id)
	}

	// WithID goes last so the option list cannot rename the neuron.
	opts = append(opts[:len(opts):len(opts)], neuron.WithID(id))
	nr, err := neuron.New(n.tick, opts...)
	if err != nil {
		return nil, fmt.Errorf("add neuron %s: %w", id, err)
	}

	n.byID[id] = nr
	n.order = append(n.order, nr)
	metrics.UpdateNeuronCount(len(n.order))
	return nr, nil
}

// Connect gives the neuron from a new axon to the neurons to.
func (n *Network) Connect(from string, excitatory bool, to ...string) (*neuron.Axon, error) {
	src, err := n.Neuron(from)
	if err != nil {
		return nil, err
	}
	targets := make([]*neuron.Neuron, 0, len(to))
	for _, id := range to {
		t, err := n.Neuron(id)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return src.Connect(excitatory, targets...), nil
}

// Neuron looks a neuron up by id.
func (n *Network) Neuron(id string) (*neuron.Neuron, error) {
	nr, ok := n.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNeuronNotFound, id)
	}
	return nr, nil
}

// Neurons returns the neurons in insertion order.
func (n *Network) Neurons() []*neuron.Neuron {
	out := make([]*neuron.Neuron, len(n.order))
	copy(out, n.order)
	return out
}

// Len returns the number of neurons.
func (n *Network) Len() int { return len(n.order) }

// States returns a snapshot of every neuron in insertion order.
func (n *Network) States() []neuron.State {
	out := make([]neuron.State, len(n.order))
	for i, nr := range n.order {
		out[i] = nr.State()
	}
	return out
}

// Refractory counts neurons currently in their refractory period.
func (n *Network) Refractory() int {
	count := 0
	for _, nr := range n.order {
		if nr.Refractory() > 0 {
			count++
		}
	}
	return count
}

// SetCurrent changes the input current of one neuron.
func (n *Network) SetCurrent(id string, current float64) error {
	nr, err := n.Neuron(id)
	if err != nil {
		return err
	}
	nr.SetCurrent(current)
	return nil
}

// Excite adds delta to one neuron's voltage.
func (n *Network) Excite(id string, delta float64) error {
	nr, err := n.Neuron(id)
	if err != nil {
		return err
	}
	nr.OnNeuronExcitate(delta)
	return nil
}

// Close unsubscribes every neuron. Neurons stay addressable.
func (n *Network) Close() error {
	var errs []error
	for _, nr := range n.order {
		if err := nr.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close neuron %s: %w", nr.ID(), err))
		}
	}
	return errors.Join(errs...)
}
