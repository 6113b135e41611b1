// Package events carries the in-process publish/subscribe plumbing the
// domain modules communicate over. The lead lifecycle events themselves live
// in internal/events; this layer knows nothing about leads or agencies.
package events

import (
	"context"
	"time"
)

// Event is implemented by every published event.
type Event interface {
	// EventName identifies the event type; subscribers key on it.
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp every event embeds.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a fresh event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one registered type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus dispatches events to their subscribers.
type Bus interface {
	// Publish fans the event out without waiting for handlers.
	Publish(ctx context.Context, event Event)

	// PublishSync fans the event out and waits for every handler.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the name the event reports
	// from EventName.
	Subscribe(eventName string, handler Handler)
}
