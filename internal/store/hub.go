// Package store provides the in-process change hub that stands in for the
// document store's realtime subscription mechanism. Mutating operations
// publish after their transaction commits; UI surfaces subscribe per topic
// and receive change events until they release their handle.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topics mirror the persisted collections.
const (
	TopicSchedule        = "cq_schedule"
	TopicSwapRequests    = "cq_swap_requests"
	TopicLibertyRequests = "liberty_requests"
	TopicRecommendations = "weather_recommendations"
	TopicDetails         = "details"
)

// Event describes one committed change.
type Event struct {
	Topic      string    `json:"topic"`
	Action     string    `json:"action"` // created, updated, deleted
	DocumentID uuid.UUID `json:"document_id"`
	At         time.Time `json:"at"`
}

// Unsubscribe releases a subscription. Safe to call more than once.
type Unsubscribe func()

type subscriber struct {
	id     uint64
	topics map[string]bool // empty = all topics
	ch     chan Event
}

// Hub fans committed change events out to subscribers. It is notification
// only: it holds no document state, and a subscriber that falls behind
// misses events rather than blocking publishers.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscriber)}
}

// Subscribe registers interest in the given topics (none = all). The returned
// channel is closed when the subscription is released.
func (h *Hub) Subscribe(topics ...string) (<-chan Event, Unsubscribe) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &subscriber{
		id:     h.nextID,
		topics: make(map[string]bool, len(topics)),
		ch:     make(chan Event, 32),
	}
	for _, t := range topics {
		sub.topics[t] = true
	}
	h.subs[sub.id] = sub

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[sub.id]; ok {
				delete(h.subs, sub.id)
				close(s.ch)
			}
		})
	}

	return sub.ch, unsub
}

// Publish delivers an event to every matching subscriber without blocking.
func (h *Hub) Publish(topic, action string, documentID uuid.UUID) {
	ev := Event{Topic: topic, Action: action, DocumentID: documentID, At: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if len(sub.topics) > 0 && !sub.topics[topic] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Subscriber buffer full; drop rather than block the writer path.
		}
	}
}

// SubscriberCount reports active subscriptions, used by the health endpoint.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
