// Package events provides a lightweight synchronous pub/sub event bus.
//
// Listeners for an event type run in registration order on the publisher's
// goroutine. A panicking listener never prevents the remaining listeners of
// the same publication from running. Listener removal takes effect on the
// next publish.
package events

import (
	"sync"
	"time"

	"github.com/jayreddin/gemini-2-live-JR/logger"
)

// EventType identifies the type of event published on the bus.
type EventType string

// Event is a single publication delivered to listeners.
type Event struct {
	Type      EventType
	Timestamp time.Time
	SessionID string
	Data      any
}

// Listener is a function that handles events.
type Listener func(*Event)

// Bus distributes events to registered listeners.
// The zero value is not usable; create one with NewBus.
type Bus struct {
	mu              sync.RWMutex
	nextID          int
	listeners       map[EventType][]subscription
	globalListeners []subscription
}

type subscription struct {
	id       int
	listener Listener
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventType][]subscription),
	}
}

// Subscribe registers a listener for a specific event type and returns a
// function that removes it. Removal takes effect on the next publish.
func (b *Bus) Subscribe(eventType EventType, listener Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[eventType] = append(b.listeners[eventType], subscription{id: id, listener: listener})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.listeners[eventType]
		for i, sub := range subs {
			if sub.id == id {
				b.listeners[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers a listener for every event type. Global listeners
// run after the type-specific listeners of each publication.
func (b *Bus) SubscribeAll(listener Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.globalListeners = append(b.globalListeners, subscription{id: id, listener: listener})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.globalListeners {
			if sub.id == id {
				b.globalListeners = append(b.globalListeners[:i:i], b.globalListeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to every registered listener for its type, in
// registration order, synchronously on the caller's goroutine.
func (b *Bus) Publish(event *Event) {
	if event == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	typeListeners := b.listeners[event.Type]
	specific := make([]subscription, len(typeListeners))
	copy(specific, typeListeners)
	global := make([]subscription, len(b.globalListeners))
	copy(global, b.globalListeners)
	b.mu.RUnlock()

	for _, sub := range specific {
		safeInvoke(sub.listener, event)
	}
	for _, sub := range global {
		safeInvoke(sub.listener, event)
	}
}

// Clear removes all listeners (primarily for tests).
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[EventType][]subscription)
	b.globalListeners = nil
}

func safeInvoke(listener Listener, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("event listener panicked", "event_type", event.Type, "panic", r)
		}
	}()
	listener(event)
}
