package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	queue  []*Message
	sent   []string
	failed map[string]string
}

func (s *fakeSource) Claim(ctx context.Context, workerID string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, nil
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, nil
}

func (s *fakeSource) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeSource) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[string]string{}
	}
	s.failed[id] = errMsg
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	err  error
	sent []published
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func TestWorkerPublishesCloudEvent(t *testing.T) {
	src := &fakeSource{queue: []*Message{{
		ID:         "evt-1",
		Name:       "booking.requested",
		Payload:    []byte(`{"booking_id":"b-1"}`),
		OccurredAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Aggregate:  "b-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}}}
	prod := &fakeProducer{}
	w := &Worker{Source: src, Producer: prod, TopicPrefix: "test."}

	processed, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, prod.sent, 1)
	assert.Equal(t, "test.booking.events.v1", prod.sent[0].topic)
	assert.Equal(t, "b-1", prod.sent[0].key)
	assert.Equal(t, "application/cloudevents+json", prod.sent[0].headers["content-type"])
	assert.Equal(t, "evt-1", prod.sent[0].headers["ce-id"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(prod.sent[0].payload, &evt))
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, "booking.requested.v1", evt["type"])
	assert.Equal(t, "app://apexrentals", evt["source"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])
	assert.Equal(t, []string{"evt-1"}, src.sent)

	processed, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestWorkerMarksFailedOnPublishError(t *testing.T) {
	src := &fakeSource{queue: []*Message{{ID: "evt-2", Name: "asset.listed", Payload: []byte(`{}`)}}}
	w := &Worker{Source: src, Producer: &fakeProducer{err: errors.New("broker down")}}

	processed, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Empty(t, src.sent)
	assert.Equal(t, "broker down", src.failed["evt-2"])
}

func TestWorkerMarksFailedOnBadPayload(t *testing.T) {
	src := &fakeSource{queue: []*Message{{ID: "evt-3", Name: "asset.listed", Payload: []byte(`not json`)}}}
	prod := &fakeProducer{}
	w := &Worker{Source: src, Producer: prod}

	_, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prod.sent)
	assert.Contains(t, src.failed, "evt-3")
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "booking.events.v1", TopicFor("", "booking.confirmed"))
	assert.Equal(t, "dev.asset.events.v1", TopicFor("dev.", "asset.availability_changed"))
	assert.Equal(t, "plain.events.v1", TopicFor("", "plain"))
}

func TestWorkerRequiresDependencies(t *testing.T) {
	err := (&Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
}

func TestNextRetryUsesBackoffSchedule(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute}}
	now := time.Now()
	assert.WithinDuration(t, now.Add(time.Second), w.nextRetry(0), time.Second)
	assert.WithinDuration(t, now.Add(time.Minute), w.nextRetry(5), time.Second)
}
