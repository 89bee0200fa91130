// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/okian/vacancy/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	stats   StatsProvider
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{
		stats:   stats,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	State   string `json:"state"`
	Version int64  `json:"version"`
}

// HandleHealth handles GET /healthz requests.
// Clients asking for application/json get a short status document; everyone
// else gets the Prometheus exposition.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.stats != nil && strings.Contains(r.Header.Get("Accept"), "application/json") {
		s := h.stats.GetStats()
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", State: s.State, Version: s.Version})
		return
	}
	h.metrics.ServeHTTP(w, r)
}
