// Package ledger records every offer identifier that has been delivered so
// that it is never announced twice. Entries are append-only: nothing here
// updates or deletes them.
package ledger

import (
	"context"
	"errors"

	"jobmate/offer-watcher/internal/model"
)

// ErrConflict is returned by Record when the identifier is already present.
// Callers treat it as success: someone else recorded the offer first.
var ErrConflict = errors.New("offer already recorded")

// IsConflict reports whether err is, or wraps, ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// Ledger is the dedup store consulted by the poll cycle.
type Ledger interface {
	// Exists reports whether offerID was recorded before. No side effects.
	Exists(ctx context.Context, offerID string) (bool, error)
	// Record inserts a new entry for offer under searchID.
	Record(ctx context.Context, offer model.Offer, searchID int64) error
}
