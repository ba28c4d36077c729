package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bugrelay/bugrelay/store"
)

type pgStore struct{ db *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) store.CounterStore { return &pgStore{db: db} }

// Schema creates the counter table. Called once at startup; the
// statement is idempotent.
func Schema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS rate_counters (
            key        text PRIMARY KEY,
            count      bigint NOT NULL,
            expires_at timestamptz NOT NULL
        )`)
	return err
}

// Increment is a single atomic upsert, so two concurrent requests can
// never both observe the same count. Window keys embed the window
// start, so an existing row's expiry never needs extending.
func (p *pgStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var count int64
	err := p.db.QueryRow(ctx, `
        INSERT INTO rate_counters (key, count, expires_at)
        VALUES ($1, 1, now() + make_interval(secs => $2))
        ON CONFLICT (key) DO UPDATE
          SET count = rate_counters.count + 1
        RETURNING count`, key, ttl.Seconds()).Scan(&count)
	return count, err
}

func (p *pgStore) PurgeExpired(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `DELETE FROM rate_counters WHERE expires_at < now()`)
	return err
}
