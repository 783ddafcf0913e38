package scraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/offer-watcher/internal/scraper"
)

func TestHTTPFetcher_OK(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := scraper.NewHTTPFetcher(time.Second, 0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(body))
	assert.Contains(t, gotUA, "Mozilla/5.0")
}

func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := scraper.NewHTTPFetcher(time.Second, 0).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *scraper.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusForbidden, fe.Status)
	assert.Equal(t, srv.URL, fe.URL)
}

func TestHTTPFetcher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := scraper.NewHTTPFetcher(time.Second, 0).Fetch(context.Background(), url)

	var fe *scraper.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
	assert.Error(t, fe.Unwrap())
}

func TestHTTPFetcher_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := scraper.NewHTTPFetcher(time.Second, 0.001)
	// first call consumes the only token
	_, _ = f.Fetch(context.Background(), srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, srv.URL)

	var fe *scraper.FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestHTTPFetcher_TruncatedBodyKeepsCause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := scraper.NewHTTPFetcher(time.Second, 0).Fetch(context.Background(), srv.URL)

	var fe *scraper.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusOK, fe.Status)
	assert.ErrorContains(t, err, "status 200: read body")
}

func TestFetchError_Message(t *testing.T) {
	assert.Equal(t, "fetch u: status 403",
		(&scraper.FetchError{URL: "u", Status: 403}).Error())
	assert.Equal(t, "fetch u: status 200: read body: unexpected EOF",
		(&scraper.FetchError{URL: "u", Status: 200, Err: errors.New("read body: unexpected EOF")}).Error())
	assert.Equal(t, "fetch u: dial tcp: refused",
		(&scraper.FetchError{URL: "u", Err: errors.New("dial tcp: refused")}).Error())
}
