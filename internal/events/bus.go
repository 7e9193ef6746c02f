package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rpattn/adminpanel/pkg/logger"
)

// Event is a named message with an arbitrary payload. To addresses one component;
// an empty To broadcasts to every listener of Name.
type Event struct {
	Name    string `json:"name"`
	To      string `json:"to,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Handler reacts to a delivered event.
type Handler func(ctx context.Context, evt Event) error

// Dispatcher is the producer side of the bus.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt Event) error
}

// Forwarder relays selected events outside the process.
type Forwarder interface {
	Forward(ctx context.Context, evt Event) error
}

type listener struct {
	id        uint64
	component string
	handler   Handler
}

// Bus delivers events synchronously to in-process listeners and records every
// dispatched event in an outbox that the transport drains into its response.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string][]listener
	outbox    []Event
	forwarded map[string]struct{}
	forwarder Forwarder
	log       logger.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithForwarder relays events whose name is in names through f.
func WithForwarder(f Forwarder, names ...string) Option {
	return func(b *Bus) {
		b.forwarder = f
		for _, n := range names {
			b.forwarded[n] = struct{}{}
		}
	}
}

// WithLogger sets where forwarding failures are reported.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		listeners: map[string][]listener{},
		forwarded: map[string]struct{}{},
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Listen registers handler for events called name, on behalf of component.
// The returned func removes the registration.
func (b *Bus) Listen(component, name string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners[name] = append(b.listeners[name], listener{id: id, component: component, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		current := b.listeners[name]
		for i, l := range current {
			if l.id == id {
				b.listeners[name] = append(current[:i:i], current[i+1:]...)
				return
			}
		}
	}
}

// Dispatch records evt and delivers it to matching listeners. All listener
// errors are joined; delivery continues past a failing listener. Forwarding
// is best effort: a failed Forward is logged and never fails the dispatch.
func (b *Bus) Dispatch(ctx context.Context, evt Event) error {
	if evt.Name == "" {
		return errors.New("events: event name is required")
	}
	b.mu.Lock()
	b.outbox = append(b.outbox, evt)
	targets := make([]listener, 0, len(b.listeners[evt.Name]))
	for _, l := range b.listeners[evt.Name] {
		if evt.To == "" || evt.To == l.component {
			targets = append(targets, l)
		}
	}
	_, forward := b.forwarded[evt.Name]
	forwarder := b.forwarder
	b.mu.Unlock()

	var errs []error
	for _, l := range targets {
		if err := l.handler(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	if forward && forwarder != nil {
		if err := forwarder.Forward(ctx, evt); err != nil {
			b.log.Warn("forward event failed", "event", evt.Name, "to", evt.To, "error", err)
		}
	}
	return errors.Join(errs...)
}

// Drain returns the events dispatched since the previous Drain and clears the outbox.
func (b *Bus) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.outbox
	b.outbox = nil
	return out
}

// Recorder is a Dispatcher that only records; tests use it to assert on emitted events.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Dispatch(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, evt)
	return nil
}

// Named returns the recorded events called name.
func (r *Recorder) Named(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.Events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
