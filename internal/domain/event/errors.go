package event

import (
	"errors"
	"fmt"
)

// Sentinel kinds for registry errors. The typed errors below unwrap to these
// so callers can use either errors.Is or errors.As.
var (
	ErrDuplicateEvent = errors.New("event already exists")
	ErrUnknownEvent   = errors.New("unknown event")
)

// DuplicateEventError is returned when CreateEvent is called twice for a name.
type DuplicateEventError struct {
	Name Name
}

func (e *DuplicateEventError) Error() string {
	return fmt.Sprintf("event %q already exists", string(e.Name))
}

func (e *DuplicateEventError) Unwrap() error { return ErrDuplicateEvent }

// UnknownEventError is returned when an operation targets a name that was
// never created on the registry.
type UnknownEventError struct {
	Name Name
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event %q", string(e.Name))
}

func (e *UnknownEventError) Unwrap() error { return ErrUnknownEvent }
