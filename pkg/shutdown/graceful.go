// Package shutdown blocks until a termination signal arrives and then stops
// registered components in order.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"jobmate/offer-watcher/pkg/logging"
)

// Stoppable is anything that can be stopped within a deadline.
type Stoppable interface {
	Shutdown(ctx context.Context) error
}

// Func adapts a plain function to Stoppable.
type Func func(ctx context.Context) error

func (f Func) Shutdown(ctx context.Context) error { return f(ctx) }

// Graceful waits for one of signals, then shuts every component down in the
// order given, sharing a single timeout.
func Graceful(signals []os.Signal, timeout time.Duration, log *logging.Logger, components ...Stoppable) {
	sigCtx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	<-sigCtx.Done()
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, c := range components {
		if err := c.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		log.Warn("graceful shutdown completed with error", "err", err)
	} else {
		log.Info("graceful shutdown completed successfully")
	}
}
