package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/offer-watcher/internal/config"
)

var allKeys = []string{
	"WATCHER_PORT", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_URL", "REDIS_URL", "LEDGER_BACKEND",
	"CHECK_INTERVAL_MINUTES", "OFFER_PAUSE_MS", "SEARCH_PAUSE_MS", "FETCH_RPS",
	"FETCH_TIMEOUT_SECONDS", "FILTER_CATALOG_PATH", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/watcher")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, config.BackendPostgres, cfg.LedgerBackend)
	assert.Equal(t, 10*time.Minute, cfg.CheckInterval)
	assert.Equal(t, time.Second, cfg.OfferPause)
	assert.Equal(t, 2*time.Second, cfg.SearchPause)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 1.0, cfg.FetchRPS)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_DatabaseRequiredForPostgres(t *testing.T) {
	clearEnv(t)
	_, err := config.Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_MemoryBackendNeedsNoDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_BACKEND", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.LedgerBackend)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_BACKEND", "memory")
	t.Setenv("CHECK_INTERVAL_MINUTES", "3")
	t.Setenv("OFFER_PAUSE_MS", "0")
	t.Setenv("FETCH_RPS", "0.5")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, cfg.CheckInterval)
	assert.Zero(t, cfg.OfferPause)
	assert.Equal(t, 0.5, cfg.FetchRPS)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LEDGER_BACKEND", "sqlite"},
		{"LOG_FORMAT", "xml"},
		{"CHECK_INTERVAL_MINUTES", "0"},
		{"CHECK_INTERVAL_MINUTES", "ten"},
		{"OFFER_PAUSE_MS", "-1"},
		{"FETCH_RPS", "-2"},
		{"FETCH_TIMEOUT_SECONDS", "0"},
		{"TELEGRAM_CHAT_ID", "chat"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATABASE_URL", "postgres://localhost/watcher")
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
