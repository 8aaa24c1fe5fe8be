package repository

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNotFound     = errors.New("neuron not ranked")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
