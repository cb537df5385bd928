// Package event dispatches domain events to in-process subscribers.
//
// Master data writes publish change events on the bus; caches and other
// read models subscribe to drop what they hold for the affected tenant.
package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mes/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Bus is a synchronous in-memory EventBus. Handler errors and panics are logged
// and never reach the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	wildcard []shared.EventHandler
	logger   *zap.Logger
	stopped  atomic.Bool
}

// NewBus creates a new Bus
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger,
	}
}

// Publish delivers events to their handlers in subscription order
func (b *Bus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		b.logger.Warn("event bus stopped, dropping events", zap.Int("count", len(events)))
		return nil
	}
	for _, ev := range events {
		for _, h := range b.handlersFor(ev.EventType()) {
			if err := b.dispatch(ctx, h, ev); err != nil {
				b.logger.Error("event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.String("company", ev.Company()),
					zap.String("plant", ev.Plant()),
					zap.Error(err))
			}
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for handler.EventTypes() when none
// are given. A handler without types receives every event.
func (b *Bus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
	b.logger.Debug("event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every event type
func (b *Bus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = without(b.wildcard, handler)
	for t, hs := range b.handlers {
		if rest := without(hs, handler); len(rest) > 0 {
			b.handlers[t] = rest
		} else {
			delete(b.handlers, t)
		}
	}
}

// Start marks the bus as accepting events
func (b *Bus) Start(context.Context) error {
	b.stopped.Store(false)
	return nil
}

// Stop makes later Publish calls drop their events
func (b *Bus) Stop(context.Context) error {
	b.stopped.Store(true)
	b.logger.Info("event bus stopped")
	return nil
}

func (b *Bus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]shared.EventHandler, 0, len(b.handlers[eventType])+len(b.wildcard))
	out = append(out, b.handlers[eventType]...)
	return append(out, b.wildcard...)
}

func (b *Bus) dispatch(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", ev.EventType()),
				zap.Any("panic", r))
		}
	}()
	return h.Handle(ctx, ev)
}

func without(hs []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := make([]shared.EventHandler, 0, len(hs))
	for _, h := range hs {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

var _ shared.EventBus = (*Bus)(nil)
