package store

import (
	"sort"
	"sync"
	"time"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Renders are keyed by widget, with new draws replacing previous values.
//
// Subscribers receive events via buffered channels (buffer size 100). Events
// are sent non-blocking; if a subscriber's buffer is full, the event is
// dropped for that subscriber to prevent blocking the entire system.
type MemoryStore struct {
	mu          sync.RWMutex
	renders     map[string]Render
	subscribers map[chan Event]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		renders:     make(map[string]Render),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Draw stores a [Render] and notifies all subscribers.
//
// Seq is assigned by the store. DrawnAt is set to the current time when zero.
// The table is stored as given; callers must not mutate it afterwards.
func (m *MemoryStore) Draw(render Render) Render {
	if render.DrawnAt.IsZero() {
		render.DrawnAt = time.Now()
	}

	m.mu.Lock()
	render.Seq = m.renders[render.Widget].Seq + 1
	m.renders[render.Widget] = render
	m.mu.Unlock()

	r := render
	m.notifySubscribers(Event{Type: EventDraw, Render: &r})
	return render
}

// PublishAlert notifies all subscribers of a failed query.
func (m *MemoryStore) PublishAlert(alert Alert) {
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = time.Now()
	}
	m.notifySubscribers(Event{Type: EventAlert, Alert: &alert})
}

// Get returns the current render of a widget.
func (m *MemoryStore) Get(widget string) (Render, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.renders[widget]
	return r, ok
}

// GetAll returns a snapshot of all current renders, ordered by widget id.
func (m *MemoryStore) GetAll() []Render {
	m.mu.RLock()
	results := make([]Render, 0, len(m.renders))
	for _, r := range m.renders {
		results = append(results, r)
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Widget < results[j].Widget
	})
	return results
}

// Subscribe creates a new subscription and returns a channel for receiving
// events.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the event to all active subscribers without
// blocking; a full buffer drops the event for that subscriber.
func (m *MemoryStore) notifySubscribers(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}
