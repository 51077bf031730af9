package bus

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
)

func newTestBus(opts ...Option) *Bus {
	return New(zap.NewNop(), opts...)
}

func TestEmit_RegistrationOrder(t *testing.T) {
	b := newTestBus()
	var order []string

	b.On("ping", func(Event) { order = append(order, "first") })
	b.On("ping", func(Event) { order = append(order, "second") })
	b.On(Wildcard, func(Event) { order = append(order, "wildcard") })

	if err := b.Emit(Event{Type: "ping"}); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}

	want := []string{"first", "second", "wildcard"}
	if len(order) != len(want) {
		t.Fatalf("got %d invocations, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("invocation %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestEmit_HandlerPanicIsolated(t *testing.T) {
	b := newTestBus()
	var after int

	b.On("boom", func(Event) { panic("handler failure") })
	b.On("boom", func(Event) { after++ })
	b.On(Wildcard, func(Event) { after++ })

	if err := b.Emit(Event{Type: "boom"}); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if after != 2 {
		t.Errorf("handlers after the panicking one ran %d times, want 2", after)
	}
}

func TestOn_Unsubscribe(t *testing.T) {
	b := newTestBus()
	var calls int

	off := b.On("tick", func(Event) { calls++ })
	b.Emit(Event{Type: "tick"})
	off()
	b.Emit(Event{Type: "tick"})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if got := b.SubscriberCount("tick"); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}
}

func TestOnce(t *testing.T) {
	b := newTestBus()
	var calls int

	b.Once("tick", func(Event) { calls++ })
	b.Emit(Event{Type: "tick"})
	b.Emit(Event{Type: "tick"})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestEmit_NestedWithinLimit(t *testing.T) {
	b := newTestBus()
	var secondary int

	b.On("primary", func(Event) {
		b.Emit(Event{Type: "secondary"})
	})
	b.On("secondary", func(Event) { secondary++ })

	if err := b.Emit(Event{Type: "primary"}); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if secondary != 1 {
		t.Errorf("secondary handler ran %d times, want 1", secondary)
	}
}

func TestEmit_DepthGuardStopsLoops(t *testing.T) {
	b := newTestBus()
	var calls int

	// A handler that re-emits its own event type forever.
	b.On("loop", func(Event) {
		calls++
		b.Emit(Event{Type: "loop"})
	})

	if err := b.Emit(Event{Type: "loop"}); err != nil {
		t.Fatalf("outer Emit() error: %v", err)
	}
	if calls != maxEmitDepth {
		t.Errorf("handler ran %d times, want %d (depth limit)", calls, maxEmitDepth)
	}
}

func TestHistory_Bounded(t *testing.T) {
	b := newTestBus(WithHistory(3))

	for i := 0; i < 5; i++ {
		b.Emit(Event{Type: fmt.Sprintf("e%d", i)})
	}

	hist := b.History()
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	want := []string{"e2", "e3", "e4"}
	for i, ev := range hist {
		if ev.Type != want[i] {
			t.Errorf("history[%d] = %q, want %q (oldest discarded first)", i, ev.Type, want[i])
		}
	}
}

func TestEmit_StampsTimestamp(t *testing.T) {
	b := newTestBus()
	var got Event
	b.On("stamp", func(e Event) { got = e })
	b.Emit(Event{Type: "stamp"})
	if got.Timestamp.IsZero() {
		t.Error("Emit should stamp a zero timestamp")
	}
}
