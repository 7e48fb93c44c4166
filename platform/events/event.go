// Package events carries domain events between modules over an in-process
// bus, keeping publishers unaware of their subscribers.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type on the bus.
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp shared by all events; embed it and add
// the event's own payload fields.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a BaseEvent with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus distributes events to subscribed handlers. Publishing is asynchronous
// and fire-and-forget; handler errors never reach the publisher.
type Bus interface {
	Publish(ctx context.Context, event Event)

	// Subscribe registers a handler for the event name returned by
	// Event.EventName.
	Subscribe(eventName string, handler Handler)
}
