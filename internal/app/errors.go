package service

import "github.com/okian/lapicque/internal/domain/model"

var (
	// ErrNotStarted is returned by operations that need a started service.
	ErrNotStarted = model.ErrNotStarted
	// ErrInvalidStimulus is returned for stimuli that can never be applied.
	ErrInvalidStimulus = model.ErrInvalidStimulus
)
