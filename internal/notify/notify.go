// Package notify delivers claim lifecycle events to interested users.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Claim event actions. They double as AMQP routing key suffixes.
const (
	ActionSubmitted = "submitted"
	ActionApproved  = "approved"
	ActionReturned  = "returned"
)

// Event describes one claim status change.
type Event struct {
	Action     string      `json:"action"`
	Reference  string      `json:"reference"`
	Status     string      `json:"status"`
	ActorID    uuid.UUID   `json:"actor_id"`
	Recipients []uuid.UUID `json:"recipients"`
	At         time.Time   `json:"at"`
}

// Notifier delivers an event. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Recipients deduplicates ids and drops nil ones.
func Recipients(ids ...*uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == nil || *id == uuid.Nil || seen[*id] {
			continue
		}
		seen[*id] = true
		out = append(out, *id)
	}
	return out
}
