package events

import (
	"sync"
	"testing"
	"time"
)

// mockSubscriber implements Subscriber for testing.
type mockSubscriber struct {
	mu       sync.Mutex
	events   []Event
	isClosed bool
}

func (m *mockSubscriber) Receive(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockSubscriber) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isClosed
}

func (m *mockSubscriber) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Event, len(m.events))
	copy(cp, m.events)
	return cp
}

func TestBusEmit(t *testing.T) {
	bus := NewBus()
	sub := &mockSubscriber{}
	bus.Subscribe(sub)

	bus.Emit(Event{Type: EvHookInvoked, Action: "SHIP_LOGIN", Result: 1, Text: "hook ran"})

	events := sub.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Action != "SHIP_LOGIN" {
		t.Errorf("expected action %q, got %q", "SHIP_LOGIN", events[0].Action)
	}
	if events[0].Type != EvHookInvoked {
		t.Errorf("expected type EvHookInvoked, got %v", events[0].Type)
	}
	if events[0].Time.IsZero() {
		t.Error("expected the bus to stamp a time")
	}
}

func TestBusPreservesExplicitTime(t *testing.T) {
	bus := NewBus()
	sub := &mockSubscriber{}
	bus.Subscribe(sub)

	at := time.Unix(1700000000, 0)
	bus.Emit(Event{Type: EvQuestCall, Time: at})

	if got := sub.Events()[0].Time; !got.Equal(at) {
		t.Errorf("expected time %v, got %v", at, got)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	sub := &mockSubscriber{}

	bus.Subscribe(sub)
	bus.Unsubscribe(sub)

	bus.Emit(Event{Type: EvHookError, Text: "should not arrive"})

	if len(sub.Events()) != 0 {
		t.Error("expected no events after unsubscribe")
	}
}

func TestBusClosedSubscriberSkipped(t *testing.T) {
	bus := NewBus()
	sub := &mockSubscriber{isClosed: true}

	bus.Subscribe(sub)
	bus.Emit(Event{Type: EvQuestRejected, Text: "no delivery"})

	if len(sub.Events()) != 0 {
		t.Error("closed subscriber should not receive events")
	}
}

func TestBusCleanup(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(&mockSubscriber{})
	bus.Subscribe(&mockSubscriber{isClosed: true})
	bus.Subscribe(&mockSubscriber{isClosed: true})

	bus.Cleanup()

	if bus.Subscribers() != 1 {
		t.Errorf("expected 1 active subscriber, got %d", bus.Subscribers())
	}
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		t    EventType
		want string
	}{
		{EvHookRegistered, "hook_registered"},
		{EvHookInvoked, "hook_invoked"},
		{EvEventListLoaded, "eventlist_loaded"},
		{EvQuestCall, "quest_call"},
		{EvQuestRejected, "quest_rejected"},
		{EventType(999), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("EventType(%d).String() = %q, want %q", tt.t, got, tt.want)
		}
	}
}
