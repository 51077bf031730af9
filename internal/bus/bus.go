// Package bus implements the synchronous publish/subscribe channel used for
// cross-domain side effects. It is the only channel through which one domain
// slice reacts to another; it has no knowledge of slice internals.
package bus

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// maxEmitDepth bounds emit-inside-handler recursion. Re-entrant emits are
// legal; identical event loops are not, so dispatch fails fast past this
// depth instead of recursing forever.
const maxEmitDepth = 8

// ErrEmitDepthExceeded is returned when nested emits exceed maxEmitDepth.
var ErrEmitDepthExceeded = errors.New("bus: emit depth exceeded, aborting re-entrant dispatch")

// Event is a single message dispatched through the bus.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Handler processes one event. A panic inside a handler is caught and logged
// and never prevents remaining handlers from running.
type Handler func(Event)

type subscription struct {
	id      uint64
	typ     string
	handler Handler
	once    bool
}

// Bus is a synchronous event dispatcher with a bounded diagnostic history.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	handlers  map[string][]subscription
	history   []Event
	histCap   int
	histStart int
	histLen   int
	depth     int
	log       *zap.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithHistory sets the diagnostic history capacity (default 100).
func WithHistory(capacity int) Option {
	return func(b *Bus) {
		if capacity > 0 {
			b.histCap = capacity
		}
	}
}

// New creates an event bus.
func New(log *zap.Logger, opts ...Option) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bus{
		handlers: make(map[string][]subscription),
		histCap:  100,
		log:      log,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.history = make([]Event, b.histCap)
	return b
}

// On registers a handler for the given event type (or Wildcard) and returns
// an unsubscribe function. Handlers run in registration order.
func (b *Bus) On(eventType string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, typ: eventType, handler: h})

	return func() { b.off(eventType, id) }
}

// Once registers a handler that auto-unsubscribes after its first invocation.
func (b *Bus) Once(eventType string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, typ: eventType, handler: h, once: true})

	return func() { b.off(eventType, id) }
}

func (b *Bus) off(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit synchronously invokes every handler registered for event.Type and
// every wildcard handler, in registration order. A failing handler never
// prevents the rest from running. Returns ErrEmitDepthExceeded when nested
// emits recurse past the depth limit; the event is then neither dispatched
// nor recorded.
func (b *Bus) Emit(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	if b.depth >= maxEmitDepth {
		b.mu.Unlock()
		b.log.Error("event dispatch aborted",
			zap.String("type", event.Type),
			zap.Int("depth", maxEmitDepth),
			zap.Error(ErrEmitDepthExceeded))
		return ErrEmitDepthExceeded
	}
	b.depth++
	b.record(event)

	// Snapshot under lock so handlers may subscribe/unsubscribe freely.
	subs := make([]subscription, 0, len(b.handlers[event.Type])+len(b.handlers[Wildcard]))
	subs = append(subs, b.handlers[event.Type]...)
	subs = append(subs, b.handlers[Wildcard]...)
	b.mu.Unlock()

	for _, s := range subs {
		if s.once {
			b.off(s.typ, s.id)
		}
		b.invoke(s.handler, event)
	}

	b.mu.Lock()
	b.depth--
	b.mu.Unlock()
	return nil
}

// invoke runs one handler with panic isolation.
func (b *Bus) invoke(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("type", event.Type),
				zap.Any("panic", r))
		}
	}()
	h(event)
}

// record appends to the circular history, discarding oldest first.
// Caller holds b.mu.
func (b *Bus) record(event Event) {
	idx := (b.histStart + b.histLen) % b.histCap
	b.history[idx] = event
	if b.histLen < b.histCap {
		b.histLen++
	} else {
		b.histStart = (b.histStart + 1) % b.histCap
	}
}

// History returns the retained events, oldest first.
func (b *Bus) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, b.histLen)
	for i := 0; i < b.histLen; i++ {
		out[i] = b.history[(b.histStart+i)%b.histCap]
	}
	return out
}

// SubscriberCount returns the number of handlers registered for a type.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[eventType])
}
