// Package api exposes the engine over a local HTTP surface: session actions,
// the seed ledger, tasks, squads, selectors and health/metrics endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/blocking"
	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/session"
	"github.com/grove-app/grove/internal/store"
)

// Version is the engine version reported by /api/version.
const Version = "0.3.0"

// Server is the grove HTTP API server.
type Server struct {
	st             *store.Store
	ctrl           *session.Controller
	blocker        *blocking.Service
	clock          domain.Clock
	log            *zap.Logger
	metricsEnabled bool
}

// NewServer creates an API server over an assembled engine.
func NewServer(st *store.Store, ctrl *session.Controller, blocker *blocking.Service, clock domain.Clock, log *zap.Logger) *Server {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{st: st, ctrl: ctrl, blocker: blocker, clock: clock, log: log}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/api/session", func(r chi.Router) {
		r.Post("/start", s.handleSessionStart)
		r.Post("/pause", s.handleSessionPause)
		r.Post("/resume", s.handleSessionResume)
		r.Post("/complete", s.handleSessionComplete)
		r.Post("/cancel", s.handleSessionCancel)
		r.Get("/current", s.handleSessionCurrent)
	})
	r.Get("/api/sessions", s.handleSessionsForDate)

	r.Route("/api/seeds", func(r chi.Router) {
		r.Get("/balance", s.handleSeedsBalance)
		r.Get("/transactions", s.handleSeedsTransactions)
		r.Post("/earn", s.handleSeedsEarn)
		r.Post("/spend", s.handleSeedsSpend)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", s.handleTasksList)
		r.Post("/", s.handleTaskCreate)
		r.Post("/{id}/complete", s.handleTaskComplete)
		r.Delete("/{id}", s.handleTaskDelete)
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", s.handleCategoriesList)
		r.Post("/", s.handleCategoryCreate)
		r.Delete("/{id}", s.handleCategoryDelete)
	})

	r.Route("/api/tags", func(r chi.Router) {
		r.Get("/", s.handleTagsList)
		r.Post("/", s.handleTagCreate)
		r.Delete("/{id}", s.handleTagDelete)
	})

	r.Route("/api/squads", func(r chi.Router) {
		r.Get("/", s.handleSquadsList)
		r.Post("/", s.handleSquadCreate)
		r.Post("/{id}/join", s.handleSquadJoin)
		r.Post("/{id}/leave", s.handleSquadLeave)
		r.Post("/{id}/challenges", s.handleChallengeCreate)
	})

	r.Route("/api/apps", func(r chi.Router) {
		r.Get("/", s.handleAppsList)
		r.Post("/", s.handleAppRegister)
		r.Post("/{bundleID}/unlock", s.handleAppUnlock)
		r.Get("/blocked", s.handleBlockedLaunches)
	})

	r.Route("/api/stats", func(r chi.Router) {
		r.Get("/insights", s.handleInsights)
		r.Get("/chart", s.handleChart)
	})

	r.Get("/api/settings", s.handleSettingsGet)
	r.Put("/api/settings", s.handleSettingsUpdate)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps the engine's error kinds onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsInvalidState(err):
		writeError(w, http.StatusConflict, err.Error())
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
