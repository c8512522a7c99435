package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"copart-organizer/config"
	"copart-organizer/models"
	"copart-organizer/scraper/copart"
	"copart-organizer/services"
	"copart-organizer/storage"
	"copart-organizer/utils"
)

// lotURLRegexp pulls the lot number out of a pasted lot-page URL.
var lotURLRegexp = regexp.MustCompile(`(?i)copart\.com/lot/(\d+)`)

// Fetcher is the slice of the scrape boundary the server depends on.
type Fetcher interface {
	Fetch(ctx context.Context, lotNumber string) (string, error)
	FetchJSON(ctx context.Context, lotNumber string) ([]byte, error)
}

// Server is the single HTTP boundary: the lot API plus the static dashboard.
type Server struct {
	cfg       *config.Config
	logger    *utils.Logger
	fetcher   Fetcher
	extractor *services.Extractor
	summary   *services.SummaryService
	store     storage.LotStore
	cache     *storage.LotCache
	exporter  storage.LotExporter

	now func() time.Time
}

// New wires up a Server.
func New(cfg *config.Config, logger *utils.Logger, fetcher Fetcher,
	extractor *services.Extractor, store storage.LotStore, cache *storage.LotCache) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		extractor: extractor,
		summary:   services.NewSummaryService(logger),
		store:     store,
		cache:     cache,
		exporter:  storage.NewCSVExporter(),
		now:       time.Now,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lot/", s.withCORS(s.handleLot))
	mux.HandleFunc("/api/lots", s.withCORS(s.handleLots))
	mux.HandleFunc("/api/lots/", s.withCORS(s.handleLotsSub))
	mux.HandleFunc("/", s.handleStatic)
	return mux
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[server] listening on http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// handleLot serves GET /api/lot/{lotNumber}: a one-off fetch+extract.
func (s *Server) handleLot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	lotNumber := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/lot/"), "/")
	if lotNumber == "" {
		s.writeError(w, http.StatusBadRequest, "Lot number is required")
		return
	}

	lot, err := s.fetchLot(r.Context(), lotNumber, false)
	if err != nil {
		s.writeFetchError(w, lotNumber, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lot)
}

// handleLots serves GET /api/lots (list) and POST /api/lots (add).
func (s *Server) handleLots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		lots := s.store.List()
		services.SortBySaleDate(lots)
		s.writeJSON(w, http.StatusOK, map[string]any{"lots": lots})
	case http.MethodPost:
		s.handleAddLot(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAddLot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lot string `json:"lot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lotNumber := parseLotNumber(body.Lot)
	if lotNumber == "" {
		s.writeError(w, http.StatusBadRequest, "Lot number is required")
		return
	}
	if _, tracked := s.store.Get(lotNumber); tracked {
		s.writeError(w, http.StatusConflict, "This lot is already tracked")
		return
	}

	lot, err := s.fetchLot(r.Context(), lotNumber, false)
	if err != nil {
		s.writeFetchError(w, lotNumber, err)
		return
	}

	stored, err := s.store.Add(lot)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyTracked) {
			s.writeError(w, http.StatusConflict, "This lot is already tracked")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "could not track lot")
		return
	}
	s.writeJSON(w, http.StatusCreated, stored)
}

// handleLotsSub routes everything under /api/lots/: collection actions
// (refresh, buckets, summary, export) and per-lot operations.
func (s *Server) handleLotsSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/lots/"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] == "refresh" && r.Method == http.MethodPost:
		s.handleRefreshAll(w, r)
	case len(parts) == 1 && parts[0] == "buckets" && r.Method == http.MethodGet:
		s.handleBuckets(w)
	case len(parts) == 1 && parts[0] == "summary" && r.Method == http.MethodGet:
		s.handleSummary(w)
	case len(parts) == 1 && parts[0] == "export" && r.Method == http.MethodGet:
		s.handleExport(w)
	case len(parts) == 1 && parts[0] != "" && r.Method == http.MethodDelete:
		s.handleRemove(w, parts[0])
	case len(parts) == 2 && parts[1] == "favorite" && r.Method == http.MethodPost:
		s.handleFavorite(w, parts[0])
	case len(parts) == 2 && parts[1] == "notes" && r.Method == http.MethodPut:
		s.handleNotes(w, r, parts[0])
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

// handleRefreshAll re-fetches every tracked lot concurrently. A lot whose
// fetch fails keeps its previous record; user fields always carry forward.
func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	lots := s.store.List()
	if len(lots) == 0 {
		s.writeJSON(w, http.StatusOK, map[string]any{"lots": []*models.Lot{}, "refreshed": 0, "failed": 0})
		return
	}

	var refreshed, failed int64
	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)
	results := make(chan bool, len(lots))

	for _, lot := range lots {
		l := lot
		pool.Submit(func() {
			fresh, err := s.fetchLot(r.Context(), l.LotNumber, true)
			if err != nil {
				s.logger.Warn("[server] refresh failed for lot %s: %v, keeping previous record", l.LotNumber, err)
				results <- false
				return
			}
			if _, err := s.store.ApplyRefresh(fresh); err != nil {
				// Removed while refreshing: nothing to update.
				results <- false
				return
			}
			results <- true
		})
	}
	pool.Wait()
	close(results)

	for ok := range results {
		if ok {
			refreshed++
		} else {
			failed++
		}
	}

	updated := s.store.List()
	services.SortBySaleDate(updated)
	s.logger.Info("[server] refresh complete: %d updated, %d kept", refreshed, failed)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"lots": updated, "refreshed": refreshed, "failed": failed,
	})
}

// handleBuckets is the render-time view: statuses re-derived against the
// current clock and grouped soon/future/recent.
func (s *Server) handleBuckets(w http.ResponseWriter) {
	buckets := services.Categorize(s.store.List(), s.now())
	s.writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleSummary(w http.ResponseWriter) {
	report := s.summary.Generate(s.store.List(), s.now())
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExport(w http.ResponseWriter) {
	lots := s.store.List()
	services.SortBySaleDate(lots)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="tracked-lots.csv"`)
	if err := s.exporter.Export(w, lots); err != nil {
		s.logger.Error("[server] export failed: %v", err)
	}
}

func (s *Server) handleRemove(w http.ResponseWriter, lotNumber string) {
	if err := s.store.Remove(lotNumber); err != nil {
		s.writeError(w, http.StatusNotFound, "lot is not tracked")
		return
	}
	s.cache.Invalidate(lotNumber)
	s.writeJSON(w, http.StatusOK, map[string]string{"removed": lotNumber})
}

func (s *Server) handleFavorite(w http.ResponseWriter, lotNumber string) {
	lot, err := s.store.ToggleFavorite(lotNumber)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "lot is not tracked")
		return
	}
	s.writeJSON(w, http.StatusOK, lot)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request, lotNumber string) {
	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lot, err := s.store.SetNotes(lotNumber, body.Notes)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "lot is not tracked")
		return
	}
	s.writeJSON(w, http.StatusOK, lot)
}

// fetchLot runs the full pipeline for one lot: cache, browser fetch, HTML
// extraction, and (when the page shape changed) the structured-endpoint
// fallback. skipCache forces a live fetch (used by refresh).
func (s *Server) fetchLot(ctx context.Context, lotNumber string, skipCache bool) (*models.Lot, error) {
	if !skipCache {
		if lot, ok := s.cache.Get(lotNumber); ok {
			s.logger.Debug("[server] cache hit for lot %s", lotNumber)
			return lot, nil
		}
	}

	html, err := s.fetcher.Fetch(ctx, lotNumber)
	var lot *models.Lot
	if err == nil {
		lot, err = s.extractor.ExtractHTML(html)
	}

	if err != nil && s.cfg.APIFallback {
		if payload, ferr := s.fetcher.FetchJSON(ctx, lotNumber); ferr == nil {
			if apiLot, aerr := s.extractor.ExtractJSON(payload); aerr == nil {
				s.logger.Info("[server] lot %s recovered via structured endpoint", lotNumber)
				lot, err = apiLot, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}

	s.cache.Set(lot)
	return lot, nil
}

func (s *Server) writeFetchError(w http.ResponseWriter, lotNumber string, err error) {
	var fe *copart.FetchError
	if errors.As(err, &fe) {
		s.logger.Error("[server] lot %s: %v", lotNumber, fe)
		s.writeError(w, fe.Kind.HTTPStatus(), fe.Kind.Message())
		return
	}
	if errors.Is(err, services.ErrNoLotData) {
		s.writeError(w, http.StatusNotFound, "Could not extract lot data")
		return
	}
	s.logger.Error("[server] lot %s: %v", lotNumber, err)
	s.writeError(w, http.StatusInternalServerError, "Error processing request")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("[server] encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// handleStatic serves the dashboard files with SPA fallback: extensionless
// paths get index.html.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, "/")
	if rel == "" || filepath.Ext(rel) == "" {
		rel = "index.html"
	}

	path := filepath.Join(s.cfg.StaticDir, filepath.Clean("/"+rel))
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// parseLotNumber accepts a bare lot number or a full lot-page URL.
func parseLotNumber(input string) string {
	input = strings.TrimSpace(input)
	if m := lotURLRegexp.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return input
}
