package storage

import "sync"

// Hub implements listener registration and fan-out for AuthStore
// implementations. Listeners are invoked synchronously, outside any store
// lock, in the order of the changed keys.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]Listener
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[int]Listener)}
}

// Subscribe registers a listener and returns its subscription handle
func (h *Hub) Subscribe(l Listener) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	h.subs[id] = l

	return &hubSubscription{hub: h, id: id}
}

// Notify delivers the changed keys to every registered listener.
// Must be called after the corresponding write has committed.
func (h *Hub) Notify(keys ...ChangeKey) {
	h.mu.Lock()
	listeners := make([]Listener, 0, len(h.subs))
	for _, l := range h.subs {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, key := range keys {
		for _, l := range listeners {
			l(key)
		}
	}
}

type hubSubscription struct {
	hub  *Hub
	id   int
	once sync.Once
}

// Unsubscribe removes the listener; safe to call more than once
func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}
