package events

import "sync"

// subscriberBuffer is how far a subscriber may lag before events are
// dropped for it.
const subscriberBuffer = 10

// Hub fans serialized events out to subscribers. Publish never blocks.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan string
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan string)}
}

// Subscribe returns an id for Unsubscribe and the event channel.
func (h *Hub) Subscribe() (uint64, <-chan string) {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.subs[h.nextID] = ch
	return h.nextID, ch
}

// Unsubscribe closes the subscriber's channel. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Publish(evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Emit builds an Event envelope and publishes it.
func (h *Hub) Emit(runID, typ string, data any) {
	h.Publish(MakeEvent(runID, typ, 1, data))
}
