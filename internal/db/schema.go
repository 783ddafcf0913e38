package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent. offers is the dedup ledger: append-only, keyed by the
// offer's detail URL, removed only through the cascade when its search goes.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS searches (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT      NOT NULL,
		channel_id   BIGINT      NOT NULL,
		url          TEXT        NOT NULL,
		city         TEXT        NOT NULL,
		query        TEXT        NOT NULL,
		category     TEXT        NOT NULL DEFAULT 'praca',
		filters      TEXT        NOT NULL DEFAULT '{}',
		last_checked TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS searches_user_id_idx ON searches (user_id)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id         TEXT PRIMARY KEY,
		search_id  BIGINT REFERENCES searches(id) ON DELETE CASCADE,
		title      TEXT        NOT NULL,
		price      TEXT        NOT NULL,
		url        TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the searches and offers tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
