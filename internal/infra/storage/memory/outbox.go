package memory

import (
	"context"
	"sort"
	"time"

	appoutbox "roomstay/internal/app/outbox"
	"roomstay/internal/app/uow"
	infraoutbox "roomstay/internal/infra/outbox"
)

// Outbox stores event records in the Store. Inside a unit of work, records
// are staged and only become claimable when the unit commits.
type Outbox struct {
	store *Store
}

func (s *Store) Outbox() *Outbox { return &Outbox{store: s} }

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	doc := &infraoutbox.EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     append([]byte(nil), record.Payload...),
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       infraoutbox.StateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	if unit, ok := uow.FromContext(ctx); ok {
		if u, ok := unit.(*Unit); ok && u.store == o.store {
			if err := u.writable(); err != nil {
				return err
			}
			u.staged.outbox = append(u.staged.outbox, doc)
			return nil
		}
	}
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	o.store.data.outbox = append(o.store.data.outbox, doc)
	return nil
}

func (o *Outbox) Flush(context.Context) error {
	o.store.signal.Notify()
	return nil
}

func (o *Outbox) Wakeup() <-chan struct{} { return o.store.signal.Wakeup() }

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	now := time.Now().UTC()
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	for _, doc := range o.store.data.outbox {
		due := (doc.State == infraoutbox.StateNew || doc.State == infraoutbox.StateFailed) && !doc.NextAttempt.After(now)
		if !due {
			continue
		}
		doc.State = infraoutbox.StateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		c := *doc
		return &c, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	return o.update(id, func(doc *infraoutbox.EventDocument) {
		doc.State = infraoutbox.StateSent
		doc.SentAt = time.Now().UTC()
	})
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return o.update(id, func(doc *infraoutbox.EventDocument) {
		doc.State = infraoutbox.StateFailed
		doc.NextAttempt = next
		doc.LastError = errMsg
		doc.Attempts++
	})
}

func (o *Outbox) update(id string, fn func(*infraoutbox.EventDocument)) error {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	for _, doc := range o.store.data.outbox {
		if doc.ID == id {
			fn(doc)
			return nil
		}
	}
	return nil
}

// Records returns a copy of every committed record in insertion order.
func (o *Outbox) Records() []infraoutbox.EventDocument {
	o.store.mu.RLock()
	defer o.store.mu.RUnlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.store.data.outbox))
	for _, doc := range o.store.data.outbox {
		out = append(out, *doc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

var (
	_ appoutbox.Outbox   = (*Outbox)(nil)
	_ infraoutbox.Source = (*Outbox)(nil)
)
