// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// StimulusKind selects how a stimulus changes its neuron.
type StimulusKind string

const (
	// StimulusCurrent replaces the neuron's input current.
	StimulusCurrent StimulusKind = "current"
	// StimulusExcite adds a voltage delta, like an axon would.
	StimulusExcite StimulusKind = "excite"
)

// ParseStimulusKind accepts the kind names case-insensitively.
func ParseStimulusKind(s string) (StimulusKind, error) {
	switch StimulusKind(strings.ToLower(strings.TrimSpace(s))) {
	case StimulusCurrent:
		return StimulusCurrent, nil
	case StimulusExcite:
		return StimulusExcite, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidStimulus, s)
	}
}

// Stimulus is an external change queued for a neuron and applied at the
// start of the next tick.
type Stimulus struct {
	ID       string       // unique id for idempotency
	NeuronID string       // target neuron
	Kind     StimulusKind // current or excite
	Value    float64      // new current, or voltage delta in mV
	Received time.Time    // when the stimulus was accepted
}
