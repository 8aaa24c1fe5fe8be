package topology

import "errors"

var (
	// ErrInvalidTopology is returned when a description fails validation.
	ErrInvalidTopology = errors.New("invalid topology")
	// ErrUnsupportedFormat is returned for file formats without a decoder.
	ErrUnsupportedFormat = errors.New("unsupported topology format")
)
