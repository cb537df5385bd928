package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/mes/backend/internal/domain/shared"
)

// EventRecorder keeps every domain event it sees. It can stand in for the bus
// as a service's publisher or be subscribed to a real bus as a handler.
type EventRecorder struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
}

// NewEventRecorder creates a recorder. With no types it accepts every event.
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{types: eventTypes}
}

// Publish implements shared.EventPublisher
func (r *EventRecorder) Publish(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return r.err
}

// Handle implements shared.EventHandler
func (r *EventRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	return r.Publish(ctx, event)
}

// EventTypes implements shared.EventHandler
func (r *EventRecorder) EventTypes() []string { return r.types }

// FailWith makes every later Publish record the events and return err
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Events returns a copy of what was recorded
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

// Count returns how many events of eventType were recorded
func (r *EventRecorder) Count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

// Of returns the recorded events of eventType
func (r *EventRecorder) Of(eventType string) []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range r.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops the recorded events and the injected error
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.err = nil
}

// WaitForCount polls until n events of eventType arrived or timeout passes.
// Use it when the recorder sits behind an asynchronous bus.
func (r *EventRecorder) WaitForCount(eventType string, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if r.Count(eventType) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// NewTestEvent returns an event of eventType for an entity of the test plant
func NewTestEvent(eventType string) shared.DomainEvent {
	entity := shared.TenantEntity{Company: TestCompany, Plant: TestPlant}
	entity.ID = NewRandomUUID()
	ev := shared.NewBaseDomainEvent(eventType, "TestAggregate", entity)
	return &ev
}
