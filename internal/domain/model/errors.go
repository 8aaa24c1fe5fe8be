package model

import "errors"

var (
	// ErrInvalidStimulus is returned for stimuli that can never be applied.
	ErrInvalidStimulus = errors.New("invalid stimulus")
	// ErrNotStarted is returned by operations that need a running simulation.
	ErrNotStarted = errors.New("service not started")
)
