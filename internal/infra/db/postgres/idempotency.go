package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"apexrentals/internal/app/middleware"
)

// IdempotencyStore treats rows older than ttl as absent.
type IdempotencyStore struct {
	db  *sqlx.DB
	ttl time.Duration
}

func NewIdempotencyStore(db *sqlx.DB, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var row struct {
		Key        string    `db:"key"`
		Payload    []byte    `db:"payload"`
		OccurredAt time.Time `db:"occurred_at"`
		CreatedAt  time.Time `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT key, payload, occurred_at, created_at FROM idempotency WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	if s.ttl > 0 && time.Since(row.CreatedAt) > s.ttl {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return middleware.IdempotencyRecord{Key: row.Key, Payload: row.Payload, OccurredAt: row.OccurredAt.UTC()}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO idempotency (key, payload, occurred_at, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, occurred_at = EXCLUDED.occurred_at, created_at = now()`,
		rec.Key, rec.Payload, rec.OccurredAt)
	return err
}

// Purge deletes rows past the ttl; the scheduler runs it.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM idempotency WHERE created_at < $1`, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
