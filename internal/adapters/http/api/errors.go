package api

import (
	"errors"
	"strings"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
	ErrUnavailable  = errors.New("unavailable")
)

// Error carries the operation that failed and the sentinel kind callers
// match on with errors.Is.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	parts := []string{e.Op, e.Kind.Error()}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind creates an error of kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}
