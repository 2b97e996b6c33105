package bus

import (
	"log/slog"
	"sync"
)

// Event names published by the platform core.
const (
	EventConnectorSynced = "connector.synced"
	EventDataHubUpdated  = "datahub.updated"
	EventPolicyUpdated   = "policy.updated"
	EventActionRequested = "action.requested"
	EventActionCompleted = "action.completed"
	EventAuditAppended   = "audit.appended"
	EventReportGenerated = "report.generated"
)

// Handler receives one published payload.
type Handler func(payload any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous in-process publish/subscribe fabric keyed by event
// name. Publish invokes every handler registered for the event, in
// registration order, on the caller's goroutine. There is no queueing and no
// deferred delivery.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// Subscribe registers a handler for the event and returns a function that
// removes exactly this registration.
func (b *Bus) Subscribe(event string, handler Handler) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[event]
		for i, sub := range subs {
			if sub.id == id {
				b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers payload to every handler currently registered for event.
// A panicking handler is recovered and logged so it cannot stop delivery to
// the remaining handlers or unwind into the publisher.
func (b *Bus) Publish(event string, payload any) {
	b.mu.Lock()
	subs := make([]subscription, len(b.handlers[event]))
	copy(subs, b.handlers[event])
	b.mu.Unlock()

	for _, sub := range subs {
		invoke(event, sub.handler, payload)
	}
}

func invoke(event string, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "event", event, "panic", r)
		}
	}()
	handler(payload)
}
