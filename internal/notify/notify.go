// Package notify delivers newly discovered offers to subscribers. The poll
// cycle calls a Sink once per offer that was not in the ledger.
package notify

import (
	"context"
	"errors"

	"jobmate/offer-watcher/internal/model"
)

// Sink receives one event per new offer.
type Sink interface {
	Notify(ctx context.Context, ev model.NewOfferEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev model.NewOfferEvent) error

func (f SinkFunc) Notify(ctx context.Context, ev model.NewOfferEvent) error { return f(ctx, ev) }

// Fanout delivers to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, ev model.NewOfferEvent) error {
	var errs []error
	for _, s := range f {
		if err := s.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
