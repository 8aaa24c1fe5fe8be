package event

// Handle is returned by CreateEvent and refers to exactly one event on one
// registry. Using it avoids repeating the event name at every call site.
// The zero Handle refers to no event and every operation on it fails with
// *UnknownEventError.
type Handle struct {
	name     Name
	registry *Registry
}

// Name returns the event name the handle is bound to.
func (h Handle) Name() Name { return h.name }

// Valid reports whether the handle was produced by CreateEvent.
func (h Handle) Valid() bool { return h.registry != nil }

// Subscribe is Registry.Subscribe for the bound event.
func (h Handle) Subscribe(subscriber any, callback Callback) error {
	if h.registry == nil {
		return &UnknownEventError{Name: h.name}
	}
	return h.registry.Subscribe(h.name, subscriber, callback)
}

// Unsubscribe is Registry.Unsubscribe for the bound event.
func (h Handle) Unsubscribe(subscriber any) error {
	if h.registry == nil {
		return &UnknownEventError{Name: h.name}
	}
	return h.registry.Unsubscribe(h.name, subscriber)
}

// Dispatch is Registry.Dispatch for the bound event.
func (h Handle) Dispatch(args ...any) error {
	if h.registry == nil {
		return &UnknownEventError{Name: h.name}
	}
	return h.registry.Dispatch(h.name, args...)
}
