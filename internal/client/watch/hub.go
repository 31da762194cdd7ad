// Package watch fans state snapshots out to subscribers. Each subscriber
// holds at most one pending snapshot: a slow reader skips intermediate
// values and always sees the latest one.
package watch

import "sync"

// Hub is safe for concurrent use. The zero value is ready.
type Hub[T any] struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]chan T
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; calling it twice is fine.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[uint64]chan T)
	}
	id := h.next
	h.next++
	ch := make(chan T, 1)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Publish delivers v to every subscriber without blocking.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// replace the stale snapshot
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
