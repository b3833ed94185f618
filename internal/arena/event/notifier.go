package event

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Publisher delivers battle events to one transport.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Notifier fans events out to every registered publisher. Publish errors are
// logged and swallowed so transport outages never block gameplay. A nil
// Notifier is safe to use.
type Notifier struct {
	publishers []Publisher
	clock      func() time.Time
}

// NewNotifier creates a notifier over the given publishers.
func NewNotifier(publishers ...Publisher) *Notifier {
	return &Notifier{publishers: publishers, clock: time.Now}
}

// Publish stamps and delivers an event, best-effort.
func (n *Notifier) Publish(ctx context.Context, evt Event) {
	if n == nil || !evt.Type.IsValid() {
		return
	}
	if evt.Timestamp.IsZero() {
		clock := n.clock
		if clock == nil {
			clock = time.Now
		}
		evt.Timestamp = clock().UTC()
	}
	for _, publisher := range n.publishers {
		if publisher == nil {
			continue
		}
		if err := publisher.Publish(ctx, evt); err != nil {
			log.Printf("publish battle event battle_id=%s event_type=%s: %v", evt.BattleID, evt.Type, err)
		}
	}
}

// LogPublisher writes events to the process log. It backstops development
// and keeps an audit trail when no streaming transport is configured.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(_ context.Context, evt Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		payload = []byte("{}")
	}
	log.Printf("battle event battle_id=%s event_type=%s payload=%s", evt.BattleID, evt.Type, payload)
	return nil
}
