package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "apexrentals/internal/app/outbox"
	infraoutbox "apexrentals/internal/infra/outbox"
)

// Outbox queues records in memory and serves them to the outbox worker.
type Outbox struct {
	mu      sync.Mutex
	pending []*infraoutbox.Message
	claimed map[string]*infraoutbox.Message
	sent    int
}

func NewOutbox() *Outbox {
	return &Outbox{claimed: make(map[string]*infraoutbox.Message)}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, &infraoutbox.Message{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		NextAttempt: time.Now().UTC(),
	})
	return nil
}

// Flush is a no-op: records stay queued until the worker claims them.
func (o *Outbox) Flush(context.Context) error { return nil }

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for i, msg := range o.pending {
		if msg.NextAttempt.After(now) {
			continue
		}
		o.pending = append(o.pending[:i], o.pending[i+1:]...)
		o.claimed[msg.ID] = msg
		c := *msg
		return &c, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.claimed[id]; ok {
		delete(o.claimed, id)
		o.sent++
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	msg, ok := o.claimed[id]
	if !ok {
		return nil
	}
	delete(o.claimed, id)
	msg.Attempts++
	msg.NextAttempt = next
	msg.LastError = errMsg
	o.pending = append(o.pending, msg)
	return nil
}

// Pending returns the names of queued events, oldest first.
func (o *Outbox) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.pending))
	for _, msg := range o.pending {
		names = append(names, msg.Name)
	}
	return names
}

func (o *Outbox) SentCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent
}

var _ appoutbox.Outbox = (*Outbox)(nil)
var _ infraoutbox.Source = (*Outbox)(nil)
