// Package events publishes notifications about confirmed household changes.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Type names an event. It doubles as the AMQP routing key.
type Type string

const (
	MemberAdded           Type = "member.added"
	MemberRemoved         Type = "member.removed"
	ServiceAdded          Type = "service.added"
	ServiceRemoved        Type = "service.removed"
	ServiceMembersChanged Type = "service.members_changed"
	PaymentMarked         Type = "payment.marked"
	PaymentUnmarked       Type = "payment.unmarked"
)

// Event is the JSON message published after a mutation is confirmed by the store.
type Event struct {
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	MemberID  string   `json:"member_id,omitempty"`
	ServiceID string   `json:"service_id,omitempty"`
	PaymentID string   `json:"payment_id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Month     string   `json:"month,omitempty"`
	MemberIDs []string `json:"member_ids,omitempty"`
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of every published event, in order.
func (r *Recorder) Types() []Type {
	events := r.Events()
	out := make([]Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
