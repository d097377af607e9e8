package record

import (
	"context"
	"sync"
	"time"
)

// Hub fans change hints out to active subscriptions, keyed by record id.
// NotifyChanged on a store delegates here. Safe for concurrent use.
type Hub struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

// NewHub creates an empty hint hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan struct{})}
}

// Notify delivers a refresh hint to every subscription attached to id.
// Hints are dropped rather than queued when a consumer is behind; a hint
// only means "re-fetch soon", so coalescing is correct.
func (h *Hub) Notify(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// attach registers a hint channel for id and returns a detach func.
func (h *Hub) attach(id string, ch chan struct{}) func() {
	h.mu.Lock()
	h.subs[id] = append(h.subs[id], ch)
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		chans := h.subs[id]
		for i, c := range chans {
			if c == ch {
				h.subs[id] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
		if len(h.subs[id]) == 0 {
			delete(h.subs, id)
		}
	}
}

// CancelFunc stops a subscription. After it returns, no further snapshot or
// failure callbacks are delivered.
type CancelFunc func()

// Subscribe delivers a stream of snapshot-or-failure events for one record.
// An initial fetch fires immediately; after that, a fetch runs on every
// change hint from the hub and on every refresh interval, whichever comes
// first. Callbacks run on the subscription's own goroutine, never
// concurrently with each other.
func Subscribe(store Store, hub *Hub, id string, fields []string, refresh time.Duration,
	onSnapshot func(Snapshot), onFailure func(error)) CancelFunc {

	hints := make(chan struct{}, 1)
	detach := hub.attach(id, hints)
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()

		deliver := func() {
			snap, err := store.Fetch(context.Background(), id, fields)
			if err != nil {
				onFailure(err)
				return
			}
			onSnapshot(snap)
		}

		deliver()
		for {
			select {
			case <-done:
				return
			case <-hints:
			case <-ticker.C:
			}
			// A hint may race with cancellation; re-check before delivering.
			select {
			case <-done:
				return
			default:
			}
			deliver()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
			detach()
		})
	}
}
