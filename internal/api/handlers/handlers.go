// Package handlers exposes the dashboard over HTTP: source management,
// configuration, and the eight report widgets as JSON.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/om2468/stats-insights/internal/analytics"
	"github.com/om2468/stats-insights/internal/api/middleware"
	"github.com/om2468/stats-insights/internal/cache"
	"github.com/om2468/stats-insights/internal/config"
	"github.com/om2468/stats-insights/internal/duckdb"
	"github.com/om2468/stats-insights/internal/logger"
	"github.com/om2468/stats-insights/internal/report"
	"github.com/om2468/stats-insights/internal/source"
)

// Dashboard holds the active session and serves the widget endpoints.
// One session is open at a time; swapping the source closes the previous
// one and drops the cache.
type Dashboard struct {
	mu        sync.RWMutex
	sess      *duckdb.Session
	svc       *analytics.Service
	ownedPath string // temp file we created for an upload, removed on swap
	cfg       config.Config

	results *cache.Results
	log     zerolog.Logger
}

// NewDashboard creates a dashboard with no source attached yet.
func NewDashboard(cfg config.Config, log zerolog.Logger) *Dashboard {
	cfg.Normalize()
	return &Dashboard{
		cfg:     cfg,
		results: cache.NewResults(),
		log:     log,
	}
}

// Routes registers all endpoints on a fresh mux.
func (d *Dashboard) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", d.Health)
	mux.HandleFunc("GET /api/source", d.SourceInfo)
	mux.HandleFunc("POST /api/source", d.UploadSource)
	mux.HandleFunc("PUT /api/config", d.UpdateConfig)
	mux.HandleFunc("GET /api/reports", d.ListReports)
	mux.HandleFunc("GET /api/reports/{name}", d.GetReport)
	return mux
}

// UseSource opens path read-only, validates the configured table and
// swaps it in as the active source. owned marks a temp file the
// dashboard should delete once the source is replaced.
func (d *Dashboard) UseSource(ctx context.Context, path string, owned bool) error {
	sess, err := duckdb.Open(ctx, path)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	svc, err := analytics.NewService(ctx, sess, d.cfg.TableName,
		analytics.WithCache(d.results),
		analytics.WithLogger(d.log))
	if err != nil {
		sess.Close()
		return err
	}

	if d.sess != nil {
		d.sess.Close()
	}
	if d.ownedPath != "" {
		os.Remove(d.ownedPath)
	}
	d.sess = sess
	d.svc = svc
	d.ownedPath = ""
	if owned {
		d.ownedPath = path
	}
	// Stale keys from the previous source would never be hit again, but
	// they would pile up.
	d.results.Invalidate()

	d.log.Info().Str("path", sess.Path()).Str("table", d.cfg.TableName).Msg("Source attached")
	return nil
}

// Close releases the active session and any owned temp file.
func (d *Dashboard) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ownedPath != "" {
		os.Remove(d.ownedPath)
		d.ownedPath = ""
	}
	if d.sess == nil {
		return nil
	}
	err := d.sess.Close()
	d.sess = nil
	d.svc = nil
	return err
}

// Health handles GET /api/health.
func (d *Dashboard) Health(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	attached := d.sess != nil
	d.mu.RUnlock()
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"source_attached": attached,
	})
}

// SourceInfo handles GET /api/source.
func (d *Dashboard) SourceInfo(w http.ResponseWriter, r *http.Request) {
	svc, ok := d.service()
	if !ok {
		middleware.WriteError(w, http.StatusConflict, "No data source attached; upload a .duckdb file first")
		return
	}

	summary, err := svc.Summarize(r.Context())
	if err != nil {
		d.writeQueryError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// UploadSource handles POST /api/source: the request body is the raw
// bytes of a .duckdb file.
func (d *Dashboard) UploadSource(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	log := logger.FromContext(r.Context())

	path, err := source.WriteTemp(r.Body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to persist uploaded file")
		return
	}

	if err := d.UseSource(r.Context(), path, true); err != nil {
		os.Remove(path)
		log.Error().Err(err).Msg("Uploaded source rejected")
		d.writeQueryError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "source attached",
		"table":  d.config().TableName,
	})
}

// UpdateConfig handles PUT /api/config. Out-of-range cutoffs are
// clamped, not rejected; a table change re-validates against the open
// source.
func (d *Dashboard) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName    string `json:"table_name"`
		TopNPairs    int    `json:"top_n_pairs"`
		TopNAccounts int    `json:"top_n_accounts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	d.mu.Lock()
	prevTable := d.cfg.TableName
	if req.TableName != "" {
		d.cfg.TableName = req.TableName
	}
	if req.TopNPairs != 0 {
		d.cfg.TopNPairs = req.TopNPairs
	}
	if req.TopNAccounts != 0 {
		d.cfg.TopNAccounts = req.TopNAccounts
	}
	d.cfg.Normalize()
	cfg := d.cfg
	sess := d.sess

	// A new table name means the bound service is stale. If the new name
	// does not validate against the open source, the config keeps the old
	// name so stored state and query behavior never disagree.
	var rebindErr error
	if sess != nil && (d.svc == nil || d.svc.Table() != cfg.TableName) {
		svc, err := analytics.NewService(r.Context(), sess, cfg.TableName,
			analytics.WithCache(d.results),
			analytics.WithLogger(d.log))
		if err != nil {
			rebindErr = err
			d.cfg.TableName = prevTable
		} else {
			d.svc = svc
		}
	}
	d.mu.Unlock()

	if rebindErr != nil {
		d.writeQueryError(w, rebindErr)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, cfg)
}

// ListReports handles GET /api/reports. Widgets fail independently; the
// response always carries all eight.
func (d *Dashboard) ListReports(w http.ResponseWriter, r *http.Request) {
	svc, ok := d.service()
	if !ok {
		middleware.WriteError(w, http.StatusConflict, "No data source attached; upload a .duckdb file first")
		return
	}

	widgets := report.Build(r.Context(), svc, d.params(r))
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"widgets": widgets,
		"count":   len(widgets),
	})
}

// GetReport handles GET /api/reports/{name}.
func (d *Dashboard) GetReport(w http.ResponseWriter, r *http.Request) {
	svc, ok := d.service()
	if !ok {
		middleware.WriteError(w, http.StatusConflict, "No data source attached; upload a .duckdb file first")
		return
	}

	widget, err := report.BuildOne(r.Context(), svc, r.PathValue("name"), d.params(r))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, widget)
}

func (d *Dashboard) service() (*analytics.Service, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.svc, d.svc != nil
}

func (d *Dashboard) config() config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// params merges the configured cutoffs with per-request query overrides.
func (d *Dashboard) params(r *http.Request) report.Params {
	cfg := d.config()
	p := report.Params{TopNAccounts: cfg.TopNAccounts, TopNPairs: cfg.TopNPairs}
	if v, err := strconv.Atoi(r.URL.Query().Get("top_n_accounts")); err == nil {
		p.TopNAccounts = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("top_n_pairs")); err == nil {
		p.TopNPairs = v
	}
	return p
}

// writeQueryError maps the domain error taxonomy onto HTTP statuses with
// a human-readable message; nothing is swallowed.
func (d *Dashboard) writeQueryError(w http.ResponseWriter, err error) {
	var schemaErr *duckdb.SchemaError
	var sourceErr *duckdb.SourceError
	switch {
	case errors.As(err, &schemaErr):
		middleware.WriteError(w, http.StatusUnprocessableEntity, schemaErr.Error())
	case errors.As(err, &sourceErr):
		middleware.WriteError(w, http.StatusBadRequest, sourceErr.Error())
	default:
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
