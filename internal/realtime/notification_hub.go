package realtime

import (
	"context"
	"log"
	"sync"

	"studyplan/internal/models"
)

const subscriberBuffer = 16

// Subscriber receives the notifications of one owner until unregistered.
type Subscriber struct {
	owner string
	C     chan models.Notification
}

// Hub fans notifications out to every open stream of the same owner.
type Hub struct {
	mu     sync.RWMutex
	owners map[string]map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		owners: make(map[string]map[*Subscriber]struct{}),
	}
}

func (h *Hub) Register(owner string) *Subscriber {
	sub := &Subscriber{owner: owner, C: make(chan models.Notification, subscriberBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.owners[owner] == nil {
		h.owners[owner] = make(map[*Subscriber]struct{})
	}
	h.owners[owner][sub] = struct{}{}
	return sub
}

func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.owners[sub.owner]; ok {
		if _, ok := subs[sub]; !ok {
			return
		}
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.owners, sub.owner)
		}
		close(sub.C)
	}
}

// Subscribers counts the open streams of owner.
func (h *Hub) Subscribers(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.owners[owner])
}

// Notify never blocks: a subscriber whose buffer is full misses the message.
func (h *Hub) Notify(_ context.Context, owner string, n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.owners[owner] {
		select {
		case sub.C <- n:
		default:
			log.Printf("[hub][drop] owner=%s op=%s", owner, n.Operation)
		}
	}
}
