// Package event implements a named publish/subscribe registry with
// synchronous, ordered dispatch.
//
// A Registry is not safe for concurrent use. Callers that drive it from more
// than one goroutine must serialize CreateEvent, Subscribe, Unsubscribe and
// Dispatch themselves.
package event

import (
	"time"

	"github.com/okian/lapicque/pkg/metrics"
)

// Name identifies an event inside a Registry.
type Name string

// Callback is invoked on dispatch with the subscriber it was registered for
// and the arguments given to the dispatch call.
type Callback func(subscriber any, args ...any)

// subscription pairs a callback with the instance it runs against.
// removed is set when the subscription is dropped while a dispatch pass
// still holds it in its snapshot.
type subscription struct {
	subscriber any
	callback   Callback
	removed    bool
}

type entry struct {
	subs []*subscription
}

// Registry owns named events and their ordered subscriber lists.
type Registry struct {
	events map[Name]*entry
	order  []Name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		events: make(map[Name]*entry),
	}
}

// CreateEvent registers name and returns a handle bound to it.
// Creating the same name twice fails with *DuplicateEventError.
func (r *Registry) CreateEvent(name Name) (Handle, error) {
	if _, exists := r.events[name]; exists {
		return Handle{}, &DuplicateEventError{Name: name}
	}
	r.events[name] = &entry{}
	r.order = append(r.order, name)
	metrics.UpdateEventSubscribers(string(name), 0)
	return Handle{name: name, registry: r}, nil
}

// Subscribe appends a subscription for subscriber on name. The same
// subscriber may subscribe more than once; every entry is invoked.
//
// Subscriber identity is compared with ==, so it must be a comparable value.
// Pointers are the usual choice.
func (r *Registry) Subscribe(name Name, subscriber any, callback Callback) error {
	e, ok := r.events[name]
	if !ok {
		return &UnknownEventError{Name: name}
	}
	e.subs = append(e.subs, &subscription{subscriber: subscriber, callback: callback})
	metrics.UpdateEventSubscribers(string(name), len(e.subs))
	return nil
}

// Unsubscribe removes every subscription registered by subscriber on name.
// Removal during a dispatch pass suppresses any of the subscriber's
// callbacks that have not run yet in that pass.
func (r *Registry) Unsubscribe(name Name, subscriber any) error {
	e, ok := r.events[name]
	if !ok {
		return &UnknownEventError{Name: name}
	}
	kept := make([]*subscription, 0, len(e.subs))
	for _, s := range e.subs {
		if s.subscriber == subscriber {
			s.removed = true
			continue
		}
		kept = append(kept, s)
	}
	e.subs = kept
	metrics.UpdateEventSubscribers(string(name), len(e.subs))
	return nil
}

// Dispatch invokes every subscriber of name in subscription order, passing
// args through unchanged.
//
// The pass iterates over the list as it was when Dispatch was called:
// subscriptions added by a callback wait for the next pass, subscriptions
// removed by a callback are skipped for the rest of this one.
func (r *Registry) Dispatch(name Name, args ...any) error {
	e, ok := r.events[name]
	if !ok {
		return &UnknownEventError{Name: name}
	}

	start := time.Now()
	snapshot := make([]*subscription, len(e.subs))
	copy(snapshot, e.subs)
	for _, s := range snapshot {
		if s.removed {
			continue
		}
		s.callback(s.subscriber, args...)
	}
	metrics.RecordEventDispatch(string(name), float64(time.Since(start).Microseconds())/1000)
	return nil
}

// Dispatcher returns a callable that dispatches name with whatever arguments
// it receives and returns the Dispatch error. It fails with
// *UnknownEventError if name was never created.
func (r *Registry) Dispatcher(name Name) (func(args ...any) error, error) {
	if _, ok := r.events[name]; !ok {
		return nil, &UnknownEventError{Name: name}
	}
	return func(args ...any) error {
		return r.Dispatch(name, args...)
	}, nil
}

// Has reports whether name was created.
func (r *Registry) Has(name Name) bool {
	_, ok := r.events[name]
	return ok
}

// Events returns the created event names in creation order.
func (r *Registry) Events() []Name {
	out := make([]Name, len(r.order))
	copy(out, r.order)
	return out
}

// Subscribers returns the number of active subscriptions on name.
func (r *Registry) Subscribers(name Name) (int, error) {
	e, ok := r.events[name]
	if !ok {
		return 0, &UnknownEventError{Name: name}
	}
	return len(e.subs), nil
}
