package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobmate/offer-watcher/internal/model"
)

// Memory is a process-local Ledger. It does not survive restarts.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]model.LedgerEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]model.LedgerEntry), now: time.Now}
}

func (m *Memory) Exists(_ context.Context, offerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[offerID]
	return ok, nil
}

func (m *Memory) Record(_ context.Context, offer model.Offer, searchID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[offer.ID]; ok {
		return fmt.Errorf("record %s: %w", offer.ID, ErrConflict)
	}
	m.entries[offer.ID] = model.LedgerEntry{
		OfferID:     offer.ID,
		SearchID:    searchID,
		Title:       offer.Title,
		Price:       offer.Price,
		URL:         offer.URL,
		FirstSeenAt: m.now().UTC(),
	}
	return nil
}

// Get returns the entry for offerID.
func (m *Memory) Get(offerID string) (model.LedgerEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[offerID]
	return e, ok
}

// Count returns the number of recorded offers.
func (m *Memory) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries)), nil
}
