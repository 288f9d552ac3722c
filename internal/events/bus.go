package events

import (
	"context"
	"log/slog"
	"sync"
)

// Journal persists events. This is a subset of the sqlite journal's
// surface so the bus does not depend on a concrete store.
type Journal interface {
	Append(ctx context.Context, buildID, eventType string, payload []byte) error
}

// Handler processes an Event; return error to signal failure.
type Handler func(Event) error

// Bus is a simple synchronous pub/sub event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	journal     Journal // optional persistence
}

// NewBus returns a bus with no journal.
func NewBus() *Bus { return &Bus{subscribers: map[string][]Handler{}} }

// NewBusWithJournal creates a bus that persists events before delivery.
func NewBusWithJournal(j Journal) *Bus {
	return &Bus{subscribers: map[string][]Handler{}, journal: j}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[eventType] = append(b.subscribers[eventType], h)
	b.mu.Unlock()
}

// SubscribeAll registers a handler for every known event type.
func (b *Bus) SubscribeAll(h Handler) {
	for _, t := range AllTypes {
		b.Subscribe(t, h)
	}
}

// Publish delivers an event to all handlers synchronously. A configured
// journal records the event first; journal failures are logged, not
// returned, so a lost audit row never fails the build.
func (b *Bus) Publish(e Event) error {
	if b == nil || e == nil {
		return nil
	}
	if b.journal != nil {
		if err := b.journal.Append(context.Background(), e.BuildID(), e.Type(), e.Payload()); err != nil {
			slog.Warn("journal append failed", "type", e.Type(), "build_id", e.BuildID(), "error", err)
		}
	}
	b.mu.RLock()
	hs := append([]Handler(nil), b.subscribers[e.Type()]...)
	b.mu.RUnlock()
	for _, h := range hs {
		if err := h(e); err != nil {
			return err
		}
	}
	return nil
}
