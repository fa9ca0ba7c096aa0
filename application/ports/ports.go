package ports

import (
	"dopesheet/domain/events"
)

// Reporter surfaces messages the user must act on, such as a paste with no
// destination. It is the only failure channel that reaches the user.
type Reporter interface {
	Report(message string)
}

// EventBus publishes domain events and lets components react to them.
// This is a port in hexagonal architecture: the in-process bus lives in
// infrastructure/messaging.
type EventBus interface {
	events.Publisher

	// Subscribe registers handler for eventType and returns its unsubscribe func
	Subscribe(eventType string, handler events.Handler) func()
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(message string)

// Report implements Reporter
func (f ReporterFunc) Report(message string) { f(message) }
