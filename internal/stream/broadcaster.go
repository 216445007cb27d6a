package stream

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

// subscriberBuffer is how many events a listener may fall behind before it
// starts missing them.
const subscriberBuffer = 64

type EventKind string

const (
	AlertCreated    EventKind = "created"
	AlertUpdated    EventKind = "updated"
	AlertArchived   EventKind = "archived"
	AlertUnarchived EventKind = "unarchived"
)

type Event struct {
	Kind  EventKind     `json:"kind"`
	Alert *models.Alert `json:"alert"`
}

// Broadcaster fans alert changes out to live listeners.
type Broadcaster struct {
	subscribers map[uint64]chan Event
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan Event),
	}
}

func (b *Broadcaster) Subscribe() (uint64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Publish(kind EventKind, a *models.Alert) {
	if b == nil || a == nil {
		return
	}
	ev := Event{Kind: kind, Alert: a}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, ending open streams.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
