package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/offer-watcher/internal/ledger"
	"jobmate/offer-watcher/internal/model"
)

var _ ledger.Ledger = (*ledger.Memory)(nil)
var _ ledger.Ledger = (*ledger.Postgres)(nil)

func offer(id string) model.Offer {
	return model.Offer{ID: id, Title: "t-" + id, Price: "3500 zł", URL: id}
}

func TestMemory_ExistsAfterRecord(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()

	ok, err := l.Exists(ctx, "https://www.olx.pl/d/oferta/1.html")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Record(ctx, offer("https://www.olx.pl/d/oferta/1.html"), 7))

	ok, err = l.Exists(ctx, "https://www.olx.pl/d/oferta/1.html")
	require.NoError(t, err)
	assert.True(t, ok)

	e, found := l.Get("https://www.olx.pl/d/oferta/1.html")
	require.True(t, found)
	assert.Equal(t, int64(7), e.SearchID)
	assert.Equal(t, "3500 zł", e.Price)
	assert.False(t, e.FirstSeenAt.IsZero())
}

func TestMemory_ExistsHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()

	_, _ = l.Exists(ctx, "a")
	_, _ = l.Exists(ctx, "a")

	n, _ := l.Count(ctx)
	assert.Zero(t, n)
}

// Duplicate inserts are a benign no-op: ErrConflict, original entry untouched.
func TestMemory_DuplicateRecordIsConflict(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()

	require.NoError(t, l.Record(ctx, offer("a"), 1))

	second := offer("a")
	second.Title = "changed"
	err := l.Record(ctx, second, 2)

	require.Error(t, err)
	assert.True(t, ledger.IsConflict(err))
	assert.True(t, errors.Is(err, ledger.ErrConflict))

	e, _ := l.Get("a")
	assert.Equal(t, int64(1), e.SearchID)
	assert.Equal(t, "t-a", e.Title)

	n, _ := l.Count(ctx)
	assert.Equal(t, int64(1), n)
}

// The identifier is global: the same offer under another search still conflicts.
func TestMemory_KeyIsGlobalAcrossSearches(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()

	require.NoError(t, l.Record(ctx, offer("x"), 1))
	assert.True(t, ledger.IsConflict(l.Record(ctx, offer("x"), 99)))
}

func TestMemory_ConcurrentRecordsOneWinner(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Record(ctx, offer("same"), int64(i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case ledger.IsConflict(err):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)
}

func TestIsConflict(t *testing.T) {
	assert.True(t, ledger.IsConflict(fmt.Errorf("wrap: %w", ledger.ErrConflict)))
	assert.False(t, ledger.IsConflict(errors.New("other")))
	assert.False(t, ledger.IsConflict(nil))
}
