// Package httpapi is the watcher's small ops surface.
//
// Routes:
//
//	GET    /health              → liveness plus ledger size
//	POST   /check               → run a poll cycle now, returns its stats
//	GET    /preview             → URL and filter labels for ?city=&query=&category=&filters=
//	GET    /searches            → searches of the x-user-id caller
//	POST   /searches            → add a search for the x-user-id caller
//	DELETE /searches/{id}       → remove one of the caller's searches
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobmate/offer-watcher/internal/catalog"
	"jobmate/offer-watcher/internal/model"
	"jobmate/offer-watcher/internal/registry"
	"jobmate/offer-watcher/internal/scheduler"
	"jobmate/offer-watcher/internal/scraper"
	"jobmate/offer-watcher/pkg/logging"
)

// Checker runs a cycle on demand.
type Checker interface {
	RunNow(ctx context.Context) (scraper.CycleStats, error)
}

// Counter reports how many offers the ledger holds.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Searches is the registry as seen by the API.
type Searches interface {
	Add(ctx context.Context, in registry.NewSearch) (*model.Search, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Search, error)
	Remove(ctx context.Context, searchID, userID int64) error
}

// SearchView is the JSON shape of a saved search.
type SearchView struct {
	ID          int64      `json:"id"`
	ChannelID   int64      `json:"channelId"`
	URL         string     `json:"url"`
	City        string     `json:"city"`
	Query       string     `json:"query"`
	Category    string     `json:"category"`
	Filters     string     `json:"filters"`
	LastChecked *time.Time `json:"lastChecked"`
}

// Handler holds shared dependencies. searches and counter may be nil.
type Handler struct {
	version  string
	checker  Checker
	counter  Counter
	searches Searches
	catalog  *catalog.Catalog
	log      *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(version string, checker Checker, counter Counter, searches Searches, cat *catalog.Catalog, log *logging.Logger) *Handler {
	return &Handler{
		version:  version,
		checker:  checker,
		counter:  counter,
		searches: searches,
		catalog:  cat,
		log:      log,
	}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/check", h.handleCheck)
	mux.HandleFunc("/preview", h.handlePreview)
	mux.HandleFunc("/searches", h.handleSearches)
	mux.HandleFunc("/searches/", h.handleSearchAction)
}

// ─── Ops ─────────────────────────────────────────────────────────────────────

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]any{
		"status":  "ok",
		"service": "offer-watcher",
		"version": h.version,
	}
	if h.counter != nil {
		n, err := h.counter.Count(r.Context())
		if err != nil {
			h.log.Warn("health: ledger count failed", "err", err)
			resp["status"] = "degraded"
		} else {
			resp["offers"] = n
		}
	}
	jsonOK(w, resp)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.checker.RunNow(r.Context())
	if errors.Is(err, scheduler.ErrStopping) {
		jsonError(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		h.log.Error("manual check failed", "err", err)
		jsonError(w, "check failed", http.StatusInternalServerError)
		return
	}
	jsonOK(w, stats)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filters, err := model.ParseFilters(q.Get("filters"))
	if err != nil {
		jsonError(w, "filters must be a JSON object", http.StatusBadRequest)
		return
	}

	criteria, err := registry.Prepare(h.catalog, registry.NewSearch{
		City:     q.Get("city"),
		Query:    q.Get("query"),
		Category: q.Get("category"),
		Filters:  filters,
	})
	if err != nil {
		writeRegistryError(w, err, h.log)
		return
	}

	jsonOK(w, map[string]string{
		"url":     scraper.BuildURL(criteria),
		"filters": h.catalog.Describe(criteria.Filters),
	})
}

// ─── Searches ────────────────────────────────────────────────────────────────

// handleSearches handles GET and POST /searches
func (h *Handler) handleSearches(w http.ResponseWriter, r *http.Request) {
	if h.searches == nil {
		jsonError(w, "search registry not configured", http.StatusServiceUnavailable)
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listSearches(w, r, userID)
	case http.MethodPost:
		h.addSearch(w, r, userID)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSearchAction handles DELETE /searches/{id}
func (h *Handler) handleSearchAction(w http.ResponseWriter, r *http.Request) {
	if h.searches == nil {
		jsonError(w, "search registry not configured", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodDelete {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	searchID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		jsonError(w, "invalid search id", http.StatusBadRequest)
		return
	}

	if err := h.searches.Remove(r.Context(), searchID, userID); err != nil {
		writeRegistryError(w, err, h.log)
		return
	}
	jsonOK(w, map[string]int64{"removed": searchID})
}

func (h *Handler) listSearches(w http.ResponseWriter, r *http.Request, userID int64) {
	searches, err := h.searches.ListByUser(r.Context(), userID)
	if err != nil {
		writeRegistryError(w, err, h.log)
		return
	}

	views := make([]SearchView, 0, len(searches))
	for _, s := range searches {
		views = append(views, h.view(s))
	}
	jsonOK(w, views)
}

func (h *Handler) addSearch(w http.ResponseWriter, r *http.Request, userID int64) {
	var body struct {
		ChannelID int64         `json:"channelId"`
		City      string        `json:"city"`
		Query     string        `json:"query"`
		Category  string        `json:"category"`
		Filters   model.Filters `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	search, err := h.searches.Add(r.Context(), registry.NewSearch{
		UserID:    userID,
		ChannelID: body.ChannelID,
		City:      body.City,
		Query:     body.Query,
		Category:  body.Category,
		Filters:   body.Filters,
	})
	if err != nil {
		writeRegistryError(w, err, h.log)
		return
	}
	h.log.Info("search added", "searchId", search.ID, "userId", userID, "url", search.URL)
	jsonOK(w, h.view(*search))
}

func (h *Handler) view(s model.Search) SearchView {
	v := SearchView{
		ID:        s.ID,
		ChannelID: s.ChannelID,
		URL:       s.URL,
		City:      s.City,
		Query:     s.Query,
		Category:  s.Category,
		Filters:   s.FiltersJSON,
	}
	if f, err := model.ParseFilters(s.FiltersJSON); err == nil {
		v.Filters = h.catalog.Describe(f)
	}
	if !s.LastChecked.IsZero() {
		t := s.LastChecked
		v.LastChecked = &t
	}
	return v
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("x-user-id")
	if raw == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		jsonError(w, "invalid x-user-id header", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeRegistryError(w http.ResponseWriter, err error, log *logging.Logger) {
	var verr *registry.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, verr.Msg, http.StatusBadRequest)
	case errors.Is(err, registry.ErrNotFound):
		jsonError(w, "search not found", http.StatusNotFound)
	default:
		log.Error("registry error", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
