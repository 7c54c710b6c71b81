// Package events is a small typed event-dispatch registry. Handlers are
// registered against a named event type and invoked synchronously, in
// registration order, by Dispatch.
package events

import (
	"context"
	"sync"
)

// Type names an event kind.
type Type string

// Event is implemented by every dispatchable payload.
type Event interface {
	EventType() Type
}

// HandlerFunc receives events of the type it was registered for.
type HandlerFunc func(ctx context.Context, event Event)

// Registry maps event types to handlers. The zero value is not usable; use
// NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Type][]HandlerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Type][]HandlerFunc)}
}

// Register adds fn to the handlers for eventType.
func (r *Registry) Register(eventType Type, fn HandlerFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], fn)
}

// On registers a handler that only sees payloads of concrete type E.
// Payloads of any other type dispatched under eventType are ignored.
func On[E Event](r *Registry, eventType Type, fn func(ctx context.Context, event E)) {
	r.Register(eventType, func(ctx context.Context, event Event) {
		if typed, ok := event.(E); ok {
			fn(ctx, typed)
		}
	})
}

// Dispatch runs every handler registered for the event's type and returns
// how many were invoked.
func (r *Registry) Dispatch(ctx context.Context, event Event) int {
	if event == nil {
		return 0
	}
	r.mu.RLock()
	handlers := append([]HandlerFunc(nil), r.handlers[event.EventType()]...)
	r.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx, event)
	}
	return len(handlers)
}

// Handlers returns the number of handlers registered for eventType.
func (r *Registry) Handlers(eventType Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[eventType])
}
