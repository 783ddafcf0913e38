package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobmate/offer-watcher/internal/ledger"
	"jobmate/offer-watcher/internal/model"
	"jobmate/offer-watcher/internal/notify"
	"jobmate/offer-watcher/pkg/logging"
)

// SearchSource supplies the searches of one cycle.
type SearchSource interface {
	ListActive(ctx context.Context) ([]model.Search, error)
}

// searchToucher is implemented by sources that track last_checked.
type searchToucher interface {
	Touch(ctx context.Context, searchID int64) error
}

// Pauses are the courtesy delays toward the source site.
type Pauses struct {
	BetweenOffers   time.Duration
	BetweenSearches time.Duration
}

const (
	emitTimeout     = 30 * time.Second
	maxRetryBackoff = 5 * time.Second
)

// DefaultPauses match the pacing the source site tolerates.
var DefaultPauses = Pauses{BetweenOffers: time.Second, BetweenSearches: 2 * time.Second}

// CycleStats summarises one RunCycle.
type CycleStats struct {
	CycleID    string `json:"cycleId"`
	Searches   int    `json:"searches"`
	Failed     int    `json:"failed"`
	Offers     int    `json:"offers"`
	Emitted    int    `json:"emitted"`
	Duplicates int    `json:"duplicates"`
}

// Worker runs poll cycles: for every saved search it fetches the results
// page, extracts offers, and announces the ones missing from the ledger.
// Searches are processed one at a time. A Worker keeps no state between
// cycles and may run cycles concurrently; the ledger arbitrates.
type Worker struct {
	source    SearchSource
	ledger    ledger.Ledger
	fetcher   Fetcher
	extractor *Extractor
	sink      notify.Sink
	pauses    Pauses
	log       *logging.Logger
}

// NewWorker constructs a Worker.
func NewWorker(source SearchSource, l ledger.Ledger, fetcher Fetcher, sink notify.Sink, pauses Pauses, log *logging.Logger) *Worker {
	if log == nil {
		log = logging.Nop()
	}
	return &Worker{
		source:    source,
		ledger:    l,
		fetcher:   fetcher,
		extractor: NewExtractor(log.Named("extractor")),
		sink:      sink,
		pauses:    pauses,
		log:       log,
	}
}

// RunCycle makes one pass over all searches. It only fails when the search
// list cannot be loaded or ctx ends; a failing search is logged and skipped.
func (w *Worker) RunCycle(ctx context.Context) (CycleStats, error) {
	stats := CycleStats{CycleID: uuid.NewString()}
	log := w.log.With("cycle", stats.CycleID)

	searches, err := w.source.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("load searches: %w", err)
	}
	if len(searches) == 0 {
		log.Info("no saved searches, nothing to check")
		return stats, nil
	}

	log.Info("cycle started", "searches", len(searches))
	for i, search := range searches {
		if i > 0 {
			if err := sleep(ctx, w.pauses.BetweenSearches); err != nil {
				return stats, err
			}
		}
		stats.Searches++
		if err := w.runSearch(ctx, log, search, &stats); err != nil {
			stats.Failed++
			log.Warn("search skipped", "search", search.ID, "err", err)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
	}

	log.Info("cycle complete",
		"searches", stats.Searches, "failed", stats.Failed,
		"offers", stats.Offers, "emitted", stats.Emitted, "duplicates", stats.Duplicates)
	return stats, nil
}

func (w *Worker) runSearch(ctx context.Context, log *logging.Logger, search model.Search, stats *CycleStats) error {
	log = log.With("search", search.ID)

	body, err := w.fetcher.Fetch(ctx, search.URL)
	if err != nil {
		return err
	}

	var seen, emitted int
	for offer := range w.extractor.Extract(bytes.NewReader(body)) {
		seen++
		stats.Offers++

		known, err := w.ledger.Exists(ctx, offer.ID)
		if err != nil {
			// Not recorded, so the next cycle retries it.
			log.Warn("ledger lookup failed", "offer", offer.ID, "err", err)
			continue
		}
		if known {
			stats.Duplicates++
			continue
		}

		// Pause before recording: a cancelled wait must leave the offer
		// unrecorded so the next cycle still announces it.
		if emitted > 0 {
			if err := sleep(ctx, w.pauses.BetweenOffers); err != nil {
				return err
			}
		}

		if err := w.ledger.Record(ctx, offer, search.ID); err != nil {
			if ledger.IsConflict(err) {
				stats.Duplicates++
				continue
			}
			log.Warn("ledger record failed", "offer", offer.ID, "err", err)
			continue
		}

		w.emit(ctx, log, search, offer)
		emitted++
		stats.Emitted++
	}

	if t, ok := w.source.(searchToucher); ok {
		if err := t.Touch(ctx, search.ID); err != nil {
			log.Warn("touch search failed", "err", err)
		}
	}

	if emitted > 0 {
		log.Info("new offers sent", "count", emitted, "seen", seen)
	} else {
		log.Debug("no new offers", "seen", seen)
	}
	return nil
}

// emit delivers one recorded offer, retrying once. Delivery is detached from
// ctx cancellation since the ledger already holds the offer. A second failure
// leaves the offer recorded but unannounced; that is logged at error level.
func (w *Worker) emit(ctx context.Context, log *logging.Logger, search model.Search, offer model.Offer) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	ev := model.NewOfferEvent{
		SearchID:  search.ID,
		UserID:    search.UserID,
		ChannelID: search.ChannelID,
		Query:     search.Query,
		Offer:     offer,
	}
	err := w.sink.Notify(ctx, ev)
	if err == nil {
		return
	}
	log.Warn("notify failed, retrying", "offer", offer.ID, "err", err)
	_ = sleep(ctx, min(w.pauses.BetweenOffers, maxRetryBackoff))
	if err := w.sink.Notify(ctx, ev); err != nil {
		log.Error("offer recorded but not announced", "offer", offer.ID, "err", err)
	}
}

// sleep waits d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
