// Package scheduler triggers poll cycles: on a fixed cron interval, on
// demand from the HTTP API, and on demand from a Redis command channel.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"jobmate/offer-watcher/internal/scraper"
	"jobmate/offer-watcher/pkg/logging"
)

// ChannelCheckOffers is the Redis channel whose messages request a cycle.
const ChannelCheckOffers = "CMD_CHECK_OFFERS"

// ErrStopping is returned by RunNow once Shutdown has begun.
var ErrStopping = errors.New("scheduler is shutting down")

// Runner runs one poll cycle.
type Runner interface {
	RunCycle(ctx context.Context) (scraper.CycleStats, error)
}

// Scheduler wraps robfig/cron and manages the poll loop.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	log     *logging.Logger
	spec    string // cron spec, e.g. "@every 10m"
	entryID cron.EntryID

	mu       sync.Mutex
	stopping bool
	running  sync.WaitGroup // scheduled and on-demand cycles in flight
}

// New creates a Scheduler that fires every interval. Scheduled cycles never
// overlap: a tick arriving while one is running is skipped.
func New(runner Runner, interval time.Duration, log *logging.Logger) *Scheduler {
	cl := cronLogger{log: log.Named("cron")}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner: runner,
		log:    log,
		spec:   fmt.Sprintf("@every %s", interval),
	}
}

// Start registers the job and starts the scheduler. It also runs one cycle
// right away, through the same skip-if-running guard as the ticks.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() {
		s.runScheduled(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.entryID = id

	s.cron.Start()
	s.log.Info("cron started", "spec", s.spec)

	go s.cron.Entry(id).WrappedJob.Run()

	return nil
}

// Shutdown stops the cron, refuses new on-demand cycles and waits for the
// ones in flight until ctx ends.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	stopped := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("cron stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron stop: %w", ctx.Err())
	}
}

// RunNow runs a cycle immediately and returns its stats. It may overlap a
// scheduled cycle; the ledger keeps that safe.
func (s *Scheduler) RunNow(ctx context.Context) (scraper.CycleStats, error) {
	if !s.enter() {
		return scraper.CycleStats{}, ErrStopping
	}
	defer s.running.Done()

	s.log.Info("manual check requested")
	stats, err := s.runner.RunCycle(ctx)
	if err != nil {
		s.log.Warn("manual check failed", "err", err)
	}
	return stats, err
}

// ListenCommands subscribes to ChannelCheckOffers and runs a cycle per
// message until ctx ends.
func (s *Scheduler) ListenCommands(ctx context.Context, rdb *redis.Client) {
	sub := rdb.Subscribe(ctx, ChannelCheckOffers)
	defer sub.Close()
	s.log.Info("listening for commands", "channel", ChannelCheckOffers)
	s.listen(ctx, sub.Channel())
}

func (s *Scheduler) listen(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			s.log.Debug("command received", "channel", msg.Channel, "payload", msg.Payload)
			_, _ = s.RunNow(ctx)
		}
	}
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	if !s.enter() {
		return
	}
	defer s.running.Done()
	if _, err := s.runner.RunCycle(ctx); err != nil {
		s.log.Warn("scheduled cycle failed", "err", err)
	}
}

// enter registers a cycle with the shutdown wait; false once stopping.
func (s *Scheduler) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.running.Add(1)
	return true
}

// cronLogger routes robfig/cron's logging into ours.
type cronLogger struct {
	log *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(keysAndValues, "err", err)...)
}
