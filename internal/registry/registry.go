// Package registry stores saved searches: who asked for what, where new
// offers go, and the source-site URL the poll cycle fetches for them.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/offer-watcher/internal/catalog"
	"jobmate/offer-watcher/internal/model"
	"jobmate/offer-watcher/internal/scraper"
)

// ErrNotFound is returned when a search is missing or belongs to another user.
var ErrNotFound = errors.New("search not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// NewSearch is the input of Add.
type NewSearch struct {
	UserID    int64
	ChannelID int64 // 0 reuses the channel of the user's existing searches
	City      string
	Query     string
	Category  string
	Filters   model.Filters
}

// Store is the Postgres-backed registry.
type Store struct {
	pool    *pgxpool.Pool
	catalog *catalog.Catalog
}

// NewStore returns a Store validating filters against cat.
func NewStore(pool *pgxpool.Pool, cat *catalog.Catalog) *Store {
	return &Store{pool: pool, catalog: cat}
}

const searchColumns = `id, user_id, channel_id, url, city, query, category, filters, last_checked`

// Add validates and saves a search, storing its canonical URL.
func (s *Store) Add(ctx context.Context, in NewSearch) (*model.Search, error) {
	criteria, err := s.Prepare(in)
	if err != nil {
		return nil, err
	}
	filtersJSON, err := json.Marshal(criteria.Filters)
	if err != nil {
		return nil, fmt.Errorf("marshal filters: %w", err)
	}

	channelID := in.ChannelID
	if channelID == 0 {
		err := s.pool.QueryRow(ctx,
			`SELECT channel_id FROM searches WHERE user_id = $1 ORDER BY id LIMIT 1`,
			in.UserID,
		).Scan(&channelID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ValidationError{Msg: "channelId is required for a user's first search"}
		}
		if err != nil {
			return nil, fmt.Errorf("lookup channel: %w", err)
		}
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO searches (user_id, channel_id, url, city, query, category, filters)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+searchColumns,
		in.UserID, channelID, scraper.BuildURL(criteria),
		criteria.Location, criteria.Keyword, criteria.Category, string(filtersJSON),
	)
	search, err := scanSearch(row)
	if err != nil {
		return nil, fmt.Errorf("insert search: %w", err)
	}
	return search, nil
}

// Prepare validates in and returns the criteria the URL is built from.
func (s *Store) Prepare(in NewSearch) (model.SearchCriteria, error) {
	return Prepare(s.catalog, in)
}

// Prepare validates in against cat without touching the database.
func Prepare(cat *catalog.Catalog, in NewSearch) (model.SearchCriteria, error) {
	city := strings.TrimSpace(in.City)
	query := strings.TrimSpace(in.Query)
	if city == "" || query == "" {
		return model.SearchCriteria{}, &ValidationError{Msg: "city and query are required"}
	}
	if err := cat.Validate(in.Filters); err != nil {
		return model.SearchCriteria{}, &ValidationError{Msg: err.Error()}
	}
	category := in.Category
	if category == "" {
		category = scraper.DefaultCategory
	}
	return model.SearchCriteria{Location: city, Keyword: query, Category: category, Filters: in.Filters}, nil
}

// ListActive returns every saved search, oldest first. The poll cycle treats
// the result as a snapshot.
func (s *Store) ListActive(ctx context.Context) ([]model.Search, error) {
	return s.list(ctx, `SELECT `+searchColumns+` FROM searches ORDER BY id`)
}

// ListByUser returns the searches owned by userID.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]model.Search, error) {
	return s.list(ctx, `SELECT `+searchColumns+` FROM searches WHERE user_id = $1 ORDER BY id`, userID)
}

// Remove deletes a search owned by userID; its ledger entries cascade.
func (s *Store) Remove(ctx context.Context, searchID, userID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM searches WHERE id = $1 AND user_id = $2`,
		searchID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch stamps last_checked on a search after the poll cycle processed it.
func (s *Store) Touch(ctx context.Context, searchID int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE searches SET last_checked = NOW() WHERE id = $1`, searchID)
	if err != nil {
		return fmt.Errorf("touch search %d: %w", searchID, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]model.Search, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	searches := make([]model.Search, 0)
	for rows.Next() {
		search, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		searches = append(searches, *search)
	}
	return searches, rows.Err()
}

func scanSearch(row pgx.Row) (*model.Search, error) {
	var s model.Search
	if err := row.Scan(
		&s.ID, &s.UserID, &s.ChannelID, &s.URL,
		&s.City, &s.Query, &s.Category, &s.FiltersJSON, &s.LastChecked,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Static is a fixed search list, used when the watcher runs without a database.
type Static []model.Search

func (s Static) ListActive(context.Context) ([]model.Search, error) {
	return append([]model.Search(nil), s...), nil
}
