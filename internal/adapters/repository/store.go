// Package repository ranks neurons by how often they fired.
package repository

import "context"

// Entry is one row of the activity ranking.
type Entry struct {
	Rank     int    `json:"rank"`
	NeuronID string `json:"neuron_id"`
	Spikes   uint64 `json:"spikes"`
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Update records the spike count of a neuron. Counts only grow, so a
	// value not above the stored one is ignored and false is returned.
	Update(ctx context.Context, neuronID string, spikes uint64) (bool, error)

	// Rank returns the position of a neuron. Returns ErrNotFound if the
	// neuron was never recorded.
	Rank(ctx context.Context, neuronID string) (Entry, error)

	// TopN returns the n most active neurons, most spikes first.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of neurons tracked.
	Count(ctx context.Context) int
}
