package event

import (
	"context"
	"log"
	"sync"
)

// subscriberBuffer sizes each subscriber channel. A spectator that falls
// this far behind starts losing events rather than stalling publishers.
const subscriberBuffer = 16

// Broker is an in-memory fan-out of battle events to spectator subscribers.
// Publishing never blocks: slow subscribers drop events. Ordering is
// preserved per battle because the engine serializes each battle's writes.
type Broker struct {
	mu          sync.Mutex
	subscribers map[string]map[int]chan Event
	nextID      int
	closed      bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[string]map[int]chan Event)}
}

// Subscribe registers for a battle's event feed. The returned cancel
// function releases the subscription and closes the channel.
func (b *Broker) Subscribe(battleID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	b.nextID++
	subID := b.nextID
	if b.subscribers[battleID] == nil {
		b.subscribers[battleID] = make(map[int]chan Event)
	}
	b.subscribers[battleID][subID] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[battleID]
		if subs == nil {
			return
		}
		if existing, ok := subs[subID]; ok {
			delete(subs, subID)
			close(existing)
		}
		if len(subs) == 0 {
			delete(b.subscribers, battleID)
		}
	}
	return ch, cancel
}

// Publish implements Publisher. It never blocks.
func (b *Broker) Publish(_ context.Context, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for _, ch := range b.subscribers[evt.BattleID] {
		select {
		case ch <- evt:
		default:
			log.Printf("drop battle event for slow subscriber battle_id=%s event_type=%s", evt.BattleID, evt.Type)
		}
	}
	return nil
}

// Close releases all subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for battleID, subs := range b.subscribers {
		for subID, ch := range subs {
			delete(subs, subID)
			close(ch)
		}
		delete(b.subscribers, battleID)
	}
}
