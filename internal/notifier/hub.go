package notifier

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lifecal/lifecal-api/internal/models"
)

// Subscriber is one live session waiting for event list pushes.
type Subscriber struct {
	userID int64
	ch     chan []models.Event
}

// Updates returns the channel full event list snapshots arrive on.
func (s *Subscriber) Updates() <-chan []models.Event {
	return s.ch
}

// Hub tracks live subscribers by owner and fans event list snapshots out
// to them. Delivery is fire-and-forget: a subscriber that cannot keep up
// misses a snapshot rather than blocking the publisher, and the next
// snapshot supersedes anything missed.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[*Subscriber]struct{}
	buffer      int
	logger      *zap.Logger
}

// NewHub constructs a hub. buffer sizes each subscriber channel.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subscribers: make(map[int64]map[*Subscriber]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a new live session for the given owner.
func (h *Hub) Subscribe(userID int64) *Subscriber {
	sub := &Subscriber{userID: userID, ch: make(chan []models.Event, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[*Subscriber]struct{})
	}
	h.subscribers[userID][sub] = struct{}{}
	return sub
}

// Unsubscribe removes a session and closes its channel. Safe to call for
// a subscriber that was already removed.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscribers[sub.userID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.userID)
	}
	close(sub.ch)
}

// Publish pushes the owner's full event list to every live session for
// that owner. Slow subscribers are skipped, never waited on.
func (h *Hub) Publish(userID int64, events []models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers[userID] {
		select {
		case sub.ch <- events:
		default:
			h.logger.Sugar().Warnw("subscriber lagging, dropping snapshot", "user_id", userID)
		}
	}
}

// SubscriberCount reports live sessions for an owner.
func (h *Hub) SubscriberCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
