package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"apexrentals/internal/domain/shared/events"
)

// EventRecord is a domain event serialised for later publication.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox accepts records inside the caller's unit of work.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// HeaderSource adds transport headers (request id, traceparent) taken from ctx.
type HeaderSource func(ctx context.Context) map[string]string

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

// Recorder drains aggregate events into an outbox.
type Recorder struct {
	Outbox  Outbox
	Encoder EventEncoder
	Headers HeaderSource
}

// Record encodes and adds every event. A nil outbox drops them.
func (r Recorder) Record(ctx context.Context, evs []events.DomainEvent) error {
	if r.Outbox == nil || len(evs) == 0 {
		return nil
	}
	encoder := r.Encoder
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	var extra map[string]string
	if r.Headers != nil {
		extra = r.Headers(ctx)
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		for k, v := range extra {
			rec.Headers[k] = v
		}
		if err := r.Outbox.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
