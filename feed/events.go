package feed

import (
	"errors"
	"sync"
)

type EventType string

// EventError fires once for every failure returned to the caller. Failures
// masked by a cached payload do not fire.
const EventError EventType = "error"

type Event struct {
	Type  EventType
	Kind  ErrorKind
	Err   error
	Stack []byte
}

type Handler func(Event)

type observer struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// On subscribes handler to events of the given type. Handlers run
// synchronously on the goroutine that triggered the event, after the client
// has released its state.
func (c *Client) On(t EventType, handler Handler) {
	c.events.mu.Lock()
	defer c.events.mu.Unlock()

	if c.events.handlers == nil {
		c.events.handlers = make(map[EventType][]Handler)
	}
	c.events.handlers[t] = append(c.events.handlers[t], handler)
}

func (c *Client) emit(e Event) {
	c.events.mu.RLock()
	handlers := append([]Handler(nil), c.events.handlers[e.Type]...)
	c.events.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// report emits an error event for surfaced fetch failures and passes err
// through.
func (c *Client) report(err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		c.emit(Event{Type: EventError, Kind: fe.Kind, Err: fe.Err, Stack: fe.Stack})
	}
	return err
}
