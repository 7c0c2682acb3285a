package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pskrmon/pskrmon/internal/alerts"
	"github.com/pskrmon/pskrmon/internal/archive"
	"github.com/pskrmon/pskrmon/internal/compute"
	"github.com/pskrmon/pskrmon/pkg/types"
)

// maxHistoryLimit caps ?limit on the history endpoint.
const maxHistoryLimit = 1000

// Session is the read side of a monitoring session. engine.Session satisfies it.
type Session interface {
	Snapshot() types.WindowedSnapshot
	Health() types.HealthMetrics
	Subscriptions() []string
	Mode() types.MonitorMode
	Callsign() string
	Direction() types.Direction
}

// AlertSource lists alerts. *alerts.Engine satisfies it.
type AlertSource interface {
	Active() []alerts.Alert
}

// History lists archived snapshots. *archive.Store satisfies it.
type History interface {
	Recent(ctx context.Context, limit int) ([]archive.Entry, error)
}

// Options wires the handler's collaborators. Only Session is required.
type Options struct {
	Session Session
	Alerts  AlertSource
	History History

	// Stream serves /ws when set.
	Stream http.Handler

	// Auth wraps the /api/ and /ws routes when set.
	Auth func(http.Handler) http.Handler
}

// Handler is the HTTP handler for all pskrmon endpoints.
type Handler struct {
	opts Options
	mux  *http.ServeMux
	now  func() time.Time
}

// New creates a Handler and registers all routes.
func New(opts Options) http.Handler {
	h := &Handler{opts: opts, mux: http.NewServeMux(), now: time.Now}
	guard := opts.Auth
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/snapshot", h.snapshot)
	api.HandleFunc("/api/v1/health", h.health)
	api.HandleFunc("/api/v1/subscriptions", h.subscriptions)
	api.HandleFunc("/api/v1/diagnostics", h.diagnostics)
	api.HandleFunc("/api/v1/alerts", h.alerts)
	api.HandleFunc("/api/v1/history", h.history)

	h.mux.Handle("/api/", guard(api))
	h.mux.HandleFunc("/metrics", h.metrics)
	if opts.Stream != nil {
		h.mux.Handle("/ws", guard(opts.Stream))
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// snapshot returns GET /api/v1/snapshot: the latest published snapshot.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.opts.Session.Snapshot())
}

// health returns GET /api/v1/health: live health, not the last snapshot's copy.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s := h.opts.Session
	hm := s.Health()
	resp := HealthResponse{
		Mode:      s.Mode(),
		Callsign:  s.Callsign(),
		Direction: s.Direction(),
		Health:    hm,
		Quality:   compute.Score(hm),
	}
	if h.opts.Alerts != nil {
		for _, a := range h.opts.Alerts.Active() {
			if a.State == alerts.StateFiring {
				resp.AlertCount++
			}
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// subscriptions returns GET /api/v1/subscriptions.
func (h *Handler) subscriptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	hm := h.opts.Session.Health()
	topics := hm.Subscriptions
	if topics == nil {
		topics = []string{}
	}
	jsonResp(w, http.StatusOK, SubscriptionsResponse{Connected: hm.Connected, Topics: topics})
}

// diagnostics returns GET /api/v1/diagnostics: hints derived from the latest
// snapshot and the live health view.
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	now := h.now()
	snap := h.opts.Session.Snapshot()
	snap.Health = h.opts.Session.Health()
	snap.Quality = compute.Score(snap.Health)
	jsonResp(w, http.StatusOK, DiagnosticsResponse{
		GeneratedAt: now,
		Hints:       computeDiagnostics(snap, now),
	})
}

// alerts returns GET /api/v1/alerts.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out := []alerts.Alert{}
	if h.opts.Alerts != nil {
		out = append(out, h.opts.Alerts.Active()...)
	}
	jsonResp(w, http.StatusOK, out)
}

// history returns GET /api/v1/history?limit=N.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.opts.History == nil {
		jsonErr(w, http.StatusNotFound, "history is not enabled")
		return
	}

	limit := archive.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonErr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.opts.History.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("api: read history", "err", err)
		jsonErr(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			TakenAt:        e.TakenAt,
			TotalSpots:     e.TotalSpots,
			SpotsPerMinute: e.SpotsPerMinute,
			FeedHealthy:    e.FeedHealthy,
			Snapshot:       e.Snapshot,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("api: write response", "err", err)
	}
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
