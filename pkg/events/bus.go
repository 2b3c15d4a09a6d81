package events

import (
	"sync"
	"time"
)

// Subscriber receives events from the bus. A subscriber that reports
// Closed stops receiving and is dropped on the next Cleanup.
type Subscriber interface {
	Receive(ev Event)
	Closed() bool
}

// Bus fans bridge events out to subscribers (admin feed sockets, the
// event logger). Emission is synchronous; subscribers that block should
// buffer internally.
type Bus struct {
	mu   sync.RWMutex
	subs []Subscriber
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber for all events.
func (b *Bus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
}

// Emit delivers an event to every open subscriber. A zero Time is
// stamped with the current time.
func (b *Bus) Emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.Closed() {
			s.Receive(ev)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Cleanup drops closed subscribers.
func (b *Bus) Cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var active []Subscriber
	for _, s := range b.subs {
		if !s.Closed() {
			active = append(active, s)
		}
	}
	b.subs = active
}
