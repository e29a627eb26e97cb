// Package realtime is the push-only status channel: order events fan out to
// the owning customer's sessions and to all staff sessions. It is a
// notification mechanism, never the source of truth; subscribers recover
// missed events by re-fetching, not by replay.
package realtime

import "sync"

// Topics. Each customer session subscribes to its own user topic; staff
// sessions subscribe to the shared staff topic.
const TopicStaff = "staff"

func UserTopic(userID string) string {
	return "user:" + userID
}

// Event is the wire payload pushed to subscribers.
type Event struct {
	Type        string `json:"type"` // "order.created", "order.status", "toast"
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	Status      string `json:"status,omitempty"`
	Total       int64  `json:"total,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

type Handler func(Event)

// subscriberBuffer bounds each subscriber's pending events. A subscriber
// that falls this far behind starts losing events; delivery is at-most-once
// and best-effort.
const subscriberBuffer = 16

type subscriber struct {
	ch chan Event
}

// Hub is the in-process fan-out. Publish never blocks the publisher: slow
// subscribers drop events, absent subscribers receive nothing.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	topics map[string]map[int]*subscriber
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[int]*subscriber)}
}

// Subscribe registers a handler for a topic and returns a cancel function.
// The handler runs on a dedicated goroutine per subscription, so a slow
// handler only affects its own queue. Cancel is idempotent and always
// releases the subscription, independent of any caller lifetime.
func (h *Hub) Subscribe(topic string, fn Handler) (cancel func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[int]*subscriber)
	}
	h.topics[topic][id] = sub
	h.mu.Unlock()

	go func() {
		for ev := range sub.ch {
			fn(ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.topics[topic]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish delivers the event to every current subscriber of the topic.
// Full subscriber queues are skipped.
func (h *Hub) Publish(topic string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
