package eventbus

import "sync"

// hooks holds lifecycle callbacks for the EventBus.
type hooks struct {
	mu          sync.RWMutex
	onPublish   []func(Event, any)
	onDrop      []func(Event, any)
	onSubscribe []func(Event)
	onPanic     []func(Event, any, any)
}

// OnPublish registers a hook that fires after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.onPublish = append(bus.hooks.onPublish, fn)
}

// OnDrop registers a hook that fires when an event is dropped because the
// buffer is full.
func (bus *EventBus) OnDrop(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.onDrop = append(bus.hooks.onDrop, fn)
}

// OnSubscribe registers a hook that fires after a subscriber is registered.
func (bus *EventBus) OnSubscribe(fn func(Event)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.onSubscribe = append(bus.hooks.onSubscribe, fn)
}

// OnPanic registers a hook that fires when a subscriber panics. Panics in
// the hook itself are swallowed.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.onPanic = append(bus.hooks.onPanic, fn)
}

func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.fire(func(h *hooks) []func(Event, any) { return h.onPublish }, event, payload)
	default:
		bus.fire(func(h *hooks) []func(Event, any) { return h.onDrop }, event, payload)
	}
}

// fire snapshots the hooks chosen by pick under the read lock and calls each
// one outside it.
func (bus *EventBus) fire(pick func(*hooks) []func(Event, any), event Event, payload any) {
	bus.hooks.mu.RLock()
	fns := pick(&bus.hooks)
	snapshot := make([]func(Event, any), len(fns))
	copy(snapshot, fns)
	bus.hooks.mu.RUnlock()

	for _, fn := range snapshot {
		fn(event, payload)
	}
}

func (bus *EventBus) runOnPanic(event Event, payload any, recovered any) {
	bus.hooks.mu.RLock()
	snapshot := make([]func(Event, any, any), len(bus.hooks.onPanic))
	copy(snapshot, bus.hooks.onPanic)
	bus.hooks.mu.RUnlock()

	for _, fn := range snapshot {
		func() {
			defer func() { recover() }() //nolint:errcheck
			fn(event, payload, recovered)
		}()
	}
}
