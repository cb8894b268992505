package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	appoutbox "apexrentals/internal/app/outbox"
	infraoutbox "apexrentals/internal/infra/outbox"
)

// Outbox stores events in the same transaction as the aggregate change and
// hands them to the relay worker with SKIP LOCKED claims.
type Outbox struct {
	db *sqlx.DB
}

func NewOutbox(db *sqlx.DB) *Outbox {
	return &Outbox{db: db}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	_, err = conn(ctx, o.db).ExecContext(ctx, `INSERT INTO outbox
		(id, name, payload, occurred_at, aggregate, headers, state, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'NEW', now())`,
		record.ID, record.Name, record.Payload, record.OccurredAt, record.Aggregate, string(headers))
	return err
}

func (o *Outbox) Flush(context.Context) error { return nil }

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	var row struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		Payload     []byte    `db:"payload"`
		OccurredAt  time.Time `db:"occurred_at"`
		Aggregate   string    `db:"aggregate"`
		Headers     string    `db:"headers"`
		Attempts    int       `db:"attempts"`
		NextAttempt time.Time `db:"next_attempt_at"`
	}
	err := o.db.GetContext(ctx, &row, `UPDATE outbox SET state = 'CLAIMED', claimed_by = $1, claimed_at = now()
		WHERE id = (
			SELECT id FROM outbox
			WHERE state IN ('NEW', 'FAILED') AND next_attempt_at <= now()
			ORDER BY next_attempt_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, name, payload, occurred_at, aggregate, headers::text AS headers, attempts, next_attempt_at`, workerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	headers := map[string]string{}
	if row.Headers != "" {
		if err := json.Unmarshal([]byte(row.Headers), &headers); err != nil {
			return nil, err
		}
	}
	return &infraoutbox.Message{
		ID:          row.ID,
		Name:        row.Name,
		Payload:     row.Payload,
		OccurredAt:  row.OccurredAt.UTC(),
		Aggregate:   row.Aggregate,
		Headers:     headers,
		State:       "CLAIMED",
		Attempts:    row.Attempts,
		NextAttempt: row.NextAttempt.UTC(),
		ClaimedBy:   workerID,
	}, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	_, err := o.db.ExecContext(ctx, `UPDATE outbox SET state = 'SENT', sent_at = now() WHERE id = $1`, id)
	return err
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := o.db.ExecContext(ctx, `UPDATE outbox
		SET state = 'FAILED', next_attempt_at = $2, last_error = $3, attempts = attempts + 1
		WHERE id = $1`, id, next, errMsg)
	return err
}

var (
	_ appoutbox.Outbox   = (*Outbox)(nil)
	_ infraoutbox.Source = (*Outbox)(nil)
)
