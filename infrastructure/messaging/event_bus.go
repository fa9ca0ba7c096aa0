// Package messaging delivers domain events in process.
package messaging

import (
	"go.uber.org/zap"

	"dopesheet/domain/events"
)

// AllEvents subscribes a handler to every event type
const AllEvents = "*"

type subscription struct {
	id      int
	handler events.Handler
}

// EventBus is a synchronous, single-threaded publish/subscribe bus.
// Publish returns once every handler has run, in subscription order.
type EventBus struct {
	logger   *zap.Logger
	handlers map[string][]subscription
	nextID   int
	history  []events.DomainEvent
	keep     int
}

// NewEventBus creates an event bus keeping the last keep events for inspection
func NewEventBus(logger *zap.Logger, keep int) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		logger:   logger,
		handlers: make(map[string][]subscription),
		keep:     keep,
	}
}

// Subscribe registers handler for eventType and returns its unsubscribe func
func (b *EventBus) Subscribe(eventType string, handler events.Handler) func() {
	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})
	return func() {
		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to the handlers of its type, then to catch-all handlers
func (b *EventBus) Publish(event events.DomainEvent) {
	if event == nil {
		return
	}
	b.record(event)
	b.logger.Debug("Publishing event",
		zap.String("event_type", event.GetEventType()),
		zap.String("aggregate_id", event.GetAggregateID()),
	)

	// copies: handlers may subscribe or unsubscribe while being called
	typed := append([]subscription(nil), b.handlers[event.GetEventType()]...)
	all := append([]subscription(nil), b.handlers[AllEvents]...)
	for _, s := range typed {
		s.handler(event)
	}
	for _, s := range all {
		s.handler(event)
	}
}

// Recent returns the last published events, oldest first
func (b *EventBus) Recent() []events.DomainEvent {
	out := make([]events.DomainEvent, len(b.history))
	copy(out, b.history)
	return out
}

func (b *EventBus) record(event events.DomainEvent) {
	if b.keep <= 0 {
		return
	}
	b.history = append(b.history, event)
	if len(b.history) > b.keep {
		b.history = b.history[len(b.history)-b.keep:]
	}
}
