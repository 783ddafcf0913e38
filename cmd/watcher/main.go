// offer-watcher
//
// Polls olx.pl job searches on a schedule and announces offers nobody has
// seen yet. Each saved search is turned into a results-page URL, the page is
// scraped into offers, and offers missing from the dedup ledger are recorded
// and pushed to Redis (EVENT_NEW_OFFER) and, when configured, Telegram.
//
// Cycles run every CHECK_INTERVAL_MINUTES, on POST /check, and on any message
// published to CMD_CHECK_OFFERS.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"jobmate/offer-watcher/internal/catalog"
	"jobmate/offer-watcher/internal/config"
	"jobmate/offer-watcher/internal/db"
	"jobmate/offer-watcher/internal/httpapi"
	"jobmate/offer-watcher/internal/ledger"
	"jobmate/offer-watcher/internal/model"
	"jobmate/offer-watcher/internal/notify"
	"jobmate/offer-watcher/internal/registry"
	"jobmate/offer-watcher/internal/scheduler"
	"jobmate/offer-watcher/internal/scraper"
	"jobmate/offer-watcher/pkg/logging"
	"jobmate/offer-watcher/pkg/shutdown"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[offer-watcher] Config error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).Named("offer-watcher")
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "err", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalog.Default()
	if cfg.FilterCatalogPath != "" {
		c, err := catalog.LoadFile(cfg.FilterCatalogPath)
		if err != nil {
			return err
		}
		cat = c
		log.Info("filter catalog loaded", "path", cfg.FilterCatalogPath)
	}

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	var (
		pool     *pgxpool.Pool
		source   scraper.SearchSource = registry.Static(nil)
		searches httpapi.Searches
	)
	if cfg.DatabaseURL != "" {
		log.Info("connecting to PostgreSQL")
		p, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		pool = p
		defer pool.Close()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		store := registry.NewStore(pool, cat)
		source, searches = store, store
		log.Info("PostgreSQL connected")
	}

	var led interface {
		ledger.Ledger
		httpapi.Counter
	}
	switch cfg.LedgerBackend {
	case config.BackendMemory:
		led = ledger.NewMemory()
		log.Warn("using in-memory ledger; offers will be announced again after restart")
	default:
		led = ledger.NewPostgres(pool)
	}

	// ── Notification sinks ───────────────────────────────────────────────────
	var (
		sinks notify.Fanout
		rdb   *redis.Client
	)
	if cfg.RedisURL != "" {
		log.Info("connecting to Redis")
		r, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		rdb = r
		defer rdb.Close()
		sinks = append(sinks, notify.NewRedisPublisher(rdb))
		log.Info("Redis connected")
	}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return err
		}
		sinks = append(sinks, tg)
		log.Info("Telegram notifications enabled")
	}
	if len(sinks) == 0 {
		log.Warn("no notification sink configured; new offers are only logged")
		sinks = append(sinks, notify.SinkFunc(func(_ context.Context, ev model.NewOfferEvent) error {
			log.Info("new offer", "searchId", ev.SearchID, "offerId", ev.Offer.ID, "title", ev.Offer.Title)
			return nil
		}))
	}

	// ── Worker & scheduler ───────────────────────────────────────────────────
	worker := scraper.NewWorker(
		source, led,
		scraper.NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchRPS),
		sinks,
		scraper.Pauses{BetweenOffers: cfg.OfferPause, BetweenSearches: cfg.SearchPause},
		log.Named("worker"),
	)

	sched := scheduler.New(worker, cfg.CheckInterval, log.Named("scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	if rdb != nil {
		go sched.ListenCommands(ctx, rdb)
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	httpapi.NewHandler(version, sched, led, searches, cat, log.Named("http")).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // POST /check waits for a whole cycle
	}

	go func() {
		log.Info("listening", "version", version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "err", err)
			log.Sync()
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	shutdown.Graceful(
		[]os.Signal{syscall.SIGINT, syscall.SIGTERM},
		30*time.Second,
		log,
		srv,
		shutdown.Func(func(context.Context) error {
			cancel()
			return nil
		}),
		sched,
	)
	return nil
}
