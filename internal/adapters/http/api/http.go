// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/vacancy/internal/adapters/repository"
	service "github.com/okian/vacancy/internal/app"
	"github.com/okian/vacancy/internal/domain/dedupe"
	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/types"
)

const (
	defaultMaxLimit     = 500
	defaultAwaitTimeout = 10 * time.Second
	maxBodyBytes        = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CandidateDependencies
	AdminDependencies
	SlotDependencies
	StatsProvider
}

// Server wires HTTP routes for the allocation API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	candidatesHandler *CandidatesHandler
	slotsHandler      *SlotsHandler
	adminHandler      *AdminHandler
}

// Option configures a Server.
type Option func(*options)

type options struct {
	maxLimit     int
	awaitTimeout time.Duration
	keys         dedupe.Deduper
}

// WithMaxLimit caps the roster page size.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithAwaitTimeout bounds how long ?wait=true requests block.
func WithAwaitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.awaitTimeout = d
		}
	}
}

// WithDeduper sets where idempotency keys are remembered. By default an
// in-memory deduper holding the most recent keys is used.
func WithDeduper(d dedupe.Deduper) Option {
	return func(o *options) {
		if d != nil {
			o.keys = d
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{maxLimit: defaultMaxLimit, awaitTimeout: defaultAwaitTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.keys == nil {
		o.keys = dedupe.NewInMemoryDeduper()
	}
	return &Server{
		healthHandler:     NewHealthHandler(deps),
		statsHandler:      NewStatsHandler(deps),
		candidatesHandler: NewCandidatesHandler(deps, o.maxLimit, o.awaitTimeout, o.keys),
		slotsHandler:      NewSlotsHandler(deps),
		adminHandler:      NewAdminHandler(deps, o.awaitTimeout, o.keys),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /candidates", MetricsMiddleware(s.candidatesHandler.HandleList, "candidates"))
	mux.HandleFunc("GET /candidates/{id}", MetricsMiddleware(s.candidatesHandler.HandleGet, "candidate"))
	mux.HandleFunc("PUT /candidates/{id}/preferences", MetricsMiddleware(s.candidatesHandler.HandleSetPreferences, "preferences"))

	mux.HandleFunc("GET /slots", MetricsMiddleware(s.slotsHandler.HandleBoard, "slots"))
	mux.HandleFunc("GET /assignment", MetricsMiddleware(s.slotsHandler.HandleAssignment, "assignment"))

	mux.HandleFunc("PUT /admin/candidates/{id}/rank", MetricsMiddleware(s.adminHandler.HandleChangeRank, "admin_rank"))
	mux.HandleFunc("POST /admin/clear", MetricsMiddleware(s.adminHandler.HandleClear, "admin_clear"))
	mux.HandleFunc("POST /admin/recompute", MetricsMiddleware(s.adminHandler.HandleRecompute, "admin_recompute"))
}

// preferencesRequest is the body of PUT /candidates/{id}/preferences.
type preferencesRequest struct {
	Slots []string `json:"slots"`
}

// rankRequest is the body of PUT /admin/candidates/{id}/rank.
type rankRequest struct {
	Rank *int `json:"rank"`
}

func (r rankRequest) validate() error {
	if r.Rank == nil {
		return errors.New("missing rank")
	}
	if *r.Rank < 1 {
		return errors.New("rank must be at least 1")
	}
	return nil
}

// editResponse acknowledges an accepted mutation.
type editResponse struct {
	Status     string               `json:"status"`
	Generation uint64               `json:"generation"`
	Version    int64                `json:"version,omitempty"`
	Digest     string               `json:"digest,omitempty"`
	Candidate  *types.CandidateView `json:"candidate,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates coordinator errors into HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var perr *model.PreferenceError
	switch {
	case errors.Is(err, model.ErrUnknownCandidate):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.As(err, &perr):
		writeError(w, http.StatusUnprocessableEntity, "invalid_preferences", perr)
	case errors.Is(err, model.ErrInvalidPreferenceList):
		writeError(w, http.StatusUnprocessableEntity, "invalid_preferences", err)
	case errors.Is(err, model.ErrInvalidRank):
		writeError(w, http.StatusUnprocessableEntity, "invalid_rank", err)
	case errors.Is(err, repository.ErrPersist):
		writeError(w, http.StatusServiceUnavailable, "persistence_unavailable", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_running", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func wantsWait(r *http.Request) bool {
	switch r.URL.Query().Get("wait") {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
