package realtime

import (
	"context"
	"sync"
)

// Publisher delivers change events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// Hub fans change events out to local subscriptions.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint64]*Subscription
	next uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers interest in changes to tables (all tables when empty)
// matching filter.
func (h *Hub) Subscribe(tables []string, filter EventType) *Subscription {
	if filter == "" {
		filter = EventAll
	}
	sub := &Subscription{
		hub:    h,
		filter:  filter,
		ready:   make(chan struct{}, 1),
		pending: make(map[string]Event),
	}
	if len(tables) > 0 {
		sub.tables = make(map[string]struct{}, len(tables))
		for _, t := range tables {
			sub.tables[t] = struct{}{}
		}
	}

	h.mu.Lock()
	h.next++
	sub.id = h.next
	h.subs[sub.id] = sub
	h.mu.Unlock()
	return sub
}

// Publish delivers events to every matching subscription without blocking.
func (h *Hub) Publish(_ context.Context, events ...Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, e := range events {
		for _, sub := range h.subs {
			if sub.matches(e) {
				sub.signal(e)
			}
		}
	}
}

// SubscriberCount returns the number of open subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; ok {
		delete(h.subs, sub.id)
		close(sub.ready)
	}
}

// Subscription receives change signals. It keeps at most one pending event
// per table, so a burst of changes to a table collapses into a single
// re-read while changes to different tables are all delivered.
type Subscription struct {
	id     uint64
	hub    *Hub
	tables map[string]struct{}
	filter EventType
	ready  chan struct{}
	once   sync.Once

	mu      sync.Mutex
	pending map[string]Event
	order   []string
}

// Ready is signalled when events are pending. It is closed by Close.
func (s *Subscription) Ready() <-chan struct{} {
	return s.ready
}

// Drain returns the pending events, the latest one per table, in the order
// the tables first changed. It returns nil when nothing is pending.
func (s *Subscription) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return nil
	}
	out := make([]Event, 0, len(s.order))
	for _, table := range s.order {
		out = append(out, s.pending[table])
	}
	s.pending = make(map[string]Event)
	s.order = nil
	return out
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

func (s *Subscription) matches(e Event) bool {
	if s.tables != nil {
		if _, ok := s.tables[e.Table]; !ok {
			return false
		}
	}
	return s.filter == EventAll || s.filter == e.Type
}

// signal is called with the hub read lock held, so ready cannot be closed
// concurrently.
func (s *Subscription) signal(e Event) {
	s.mu.Lock()
	if _, ok := s.pending[e.Table]; !ok {
		s.order = append(s.order, e.Table)
	}
	s.pending[e.Table] = e
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}
