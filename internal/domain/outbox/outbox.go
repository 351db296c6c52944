package outbox

import (
	"context"
	"errors"
)

// ErrClosed is returned by publishers that no longer accept events.
var ErrClosed = errors.New("outbox: closed")

// Event is a domain event identified by name.
type Event interface {
	EventName() string
}

// Handler processes a delivered event. Errors are logged by the bus and never
// reach the publisher.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
