package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/offer-watcher/internal/model"
)

const uniqueViolation = "23505"

// Postgres stores the ledger in the offers table (see db.EnsureSchema).
// Each Record is its own committed statement, so an entry is durable before
// the caller goes on to announce the offer.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a ledger backed by pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Exists(ctx context.Context, offerID string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1)`,
		offerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("offer exists query: %w", err)
	}
	return exists, nil
}

func (p *Postgres) Record(ctx context.Context, offer model.Offer, searchID int64) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO offers (id, search_id, title, price, url)
		 VALUES ($1, $2, $3, $4, $5)`,
		offer.ID, searchID, offer.Title, offer.Price, offer.URL,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("record %s: %w", offer.ID, ErrConflict)
		}
		return fmt.Errorf("record %s: %w", offer.ID, err)
	}
	return nil
}

// Count returns the number of recorded offers.
func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return n, nil
}
