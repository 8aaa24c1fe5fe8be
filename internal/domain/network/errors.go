package network

import "errors"

var (
	// ErrDuplicateNeuron is returned when an id is added twice.
	ErrDuplicateNeuron = errors.New("duplicate neuron")
	// ErrNeuronNotFound is returned when an id does not name a neuron.
	ErrNeuronNotFound = errors.New("neuron not found")
)
