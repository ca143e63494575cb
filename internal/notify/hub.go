package notify

import (
	"log/slog"
	"sync"

	"taskcollab/internal/models"
)

const defaultBuffer = 16

// Hub fans new notifications out to live subscribers keyed by recipient identity.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int
	logger *slog.Logger
}

type subscription struct {
	ch     chan models.Notification
	keys   []string
	closed bool
}

// NewHub constructs a Hub. buffer sets the per-subscriber channel capacity.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
		logger: slog.Default().With("component", "notify"),
	}
}

// Subscribe registers interest in notifications addressed to any of identities.
// The returned cancel func unregisters and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(identities ...string) (<-chan models.Notification, func()) {
	sub := &subscription{ch: make(chan models.Notification, h.buffer)}
	seen := make(map[string]struct{}, len(identities))

	h.mu.Lock()
	for _, id := range identities {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sub.keys = append(sub.keys, id)
		set, ok := h.subs[id]
		if !ok {
			set = make(map[*subscription]struct{})
			h.subs[id] = set
		}
		set[sub] = struct{}{}
	}
	h.mu.Unlock()

	return sub.ch, func() { h.unsubscribe(sub) }
}

func (h *Hub) unsubscribe(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	for _, key := range sub.keys {
		set := h.subs[key]
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
	close(sub.ch)
}

// Publish delivers n to every subscriber of its recipient. Slow subscribers
// whose buffer is full miss the notification; it remains in storage.
func (h *Hub) Publish(n models.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[n.UserID] {
		select {
		case sub.ch <- n:
		default:
			h.logger.Warn("subscriber buffer full, dropping notification", "notification_id", n.ID, "user_id", n.UserID)
		}
	}
}

// Subscribers returns the number of live subscriptions for identity.
func (h *Hub) Subscribers(identity string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[identity])
}
