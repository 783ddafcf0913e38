// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, Load errors.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Ledger backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all runtime configuration for the offer watcher.
type Config struct {
	Port          string
	LogLevel      string
	LogFormat     string // "json" (default) or "console"
	DatabaseURL   string
	RedisURL      string // empty disables the Redis sink and command channel
	LedgerBackend string

	CheckInterval time.Duration // how often the cron job fires
	OfferPause    time.Duration // between two announcements of one search
	SearchPause   time.Duration // between two searches
	FetchRPS      float64
	FetchTimeout  time.Duration

	FilterCatalogPath string // optional YAML; built-in table when empty

	TelegramToken  string
	TelegramChatID int64
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              envOr("WATCHER_PORT", "8083"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		LogFormat:         envOr("LOG_FORMAT", "json"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		LedgerBackend:     envOr("LEDGER_BACKEND", BackendPostgres),
		FilterCatalogPath: os.Getenv("FILTER_CATALOG_PATH"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("LOG_FORMAT must be \"json\" or \"console\", got %q", cfg.LogFormat)
	}

	switch cfg.LedgerBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, cfg.LedgerBackend)
	}

	minutes, err := positiveInt("CHECK_INTERVAL_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.CheckInterval = time.Duration(minutes) * time.Minute

	offerMs, err := nonNegativeInt("OFFER_PAUSE_MS", 1000)
	if err != nil {
		return nil, err
	}
	cfg.OfferPause = time.Duration(offerMs) * time.Millisecond

	searchMs, err := nonNegativeInt("SEARCH_PAUSE_MS", 2000)
	if err != nil {
		return nil, err
	}
	cfg.SearchPause = time.Duration(searchMs) * time.Millisecond

	timeout, err := positiveInt("FETCH_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	cfg.FetchTimeout = time.Duration(timeout) * time.Second

	cfg.FetchRPS = 1
	if s := os.Getenv("FETCH_RPS"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("FETCH_RPS must be a non-negative number, got %q", s)
		}
		cfg.FetchRPS = v
	}

	if s := os.Getenv("TELEGRAM_CHAT_ID"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer, got %q", s)
		}
		cfg.TelegramChatID = id
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func nonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, s)
	}
	return v, nil
}
