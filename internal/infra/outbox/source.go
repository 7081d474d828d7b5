package outbox

import (
	"context"
	"time"
)

const (
	StateNew     = "NEW"
	StateClaimed = "CLAIMED"
	StateSent    = "SENT"
	StateFailed  = "FAILED"
)

type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by"`
	ClaimedAt   time.Time         `bson:"claimed_at"`
	SentAt      time.Time         `bson:"sent_at"`
	LastError   string            `bson:"last_error"`
	CreatedAt   time.Time         `bson:"created_at"`
}

// Source is a durable outbox the relay can drain.
type Source interface {
	// Claim returns the next due record or nil when none is due.
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
	// Wakeup fires after Flush so the relay need not wait for its ticker.
	Wakeup() <-chan struct{}
}

// Signal is a coalescing wakeup: many Notify calls before a receive
// produce one wakeup.
type Signal struct {
	ch chan struct{}
}

func NewSignal() Signal {
	return Signal{ch: make(chan struct{}, 1)}
}

func (s Signal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s Signal) Wakeup() <-chan struct{} { return s.ch }
