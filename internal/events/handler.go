// internal/events/handler.go
package events

import (
	"context"
)

// Handler consumes platform events of one type. Implementations must return
// quickly; slow consumers stall the dispatcher.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Subscription is a handle onto a registered handler.
type Subscription interface {
	// Unsubscribe detaches the handler; it receives no further events.
	Unsubscribe()
}

type subscription struct {
	id       string
	eventBus *Bus
	typ      EventType
}

func (s *subscription) Unsubscribe() {
	s.eventBus.unsubscribe(s.id, s.typ)
}
