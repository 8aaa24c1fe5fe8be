package model

import (
	"time"

	"github.com/okian/lapicque/internal/domain/neuron"
)

// Snapshot is the network state captured on one frame.
type Snapshot struct {
	Frame   uint64         `json:"frame"`
	Tick    uint64         `json:"tick"`
	At      time.Time      `json:"at"`
	Neurons []neuron.State `json:"neurons"`
}

// Receipt acknowledges a submitted stimulus.
type Receipt struct {
	ID        string `json:"stimulus_id"`
	Duplicate bool   `json:"duplicate"`
}
