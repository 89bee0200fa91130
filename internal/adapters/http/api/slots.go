package api

import (
	"context"
	"net/http"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/types"
)

// SlotDependencies defines the vacancy board and assignment reads.
type SlotDependencies interface {
	Board(ctx context.Context) []types.SlotView
	Current() model.Revision
}

// SlotsHandler serves the vacancy board and the committed assignment.
type SlotsHandler struct {
	deps SlotDependencies
}

// NewSlotsHandler creates a new slots handler.
func NewSlotsHandler(deps SlotDependencies) *SlotsHandler {
	return &SlotsHandler{deps: deps}
}

// HandleBoard handles GET /slots requests.
func (h *SlotsHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Board(r.Context()))
}

// HandleAssignment handles GET /assignment requests.
func (h *SlotsHandler) HandleAssignment(w http.ResponseWriter, _ *http.Request) {
	rev := h.deps.Current()
	if rev.Assignment == nil {
		rev.Assignment = model.Assignment{}
	}
	writeJSON(w, http.StatusOK, rev)
}
