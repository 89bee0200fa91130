package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/okian/vacancy/internal/domain/dedupe"
	"github.com/okian/vacancy/internal/domain/model"
)

// AdminDependencies defines the administrative mutations. Authorization is
// the caller's concern; these routes are expected behind an authenticating
// proxy.
type AdminDependencies interface {
	ChangeRank(ctx context.Context, id string, rank int) (uint64, error)
	ClearAll(ctx context.Context) (uint64, error)
	Recompute(ctx context.Context) (uint64, error)
	Await(ctx context.Context, gen uint64) (model.Revision, error)
}

// AdminHandler handles the /admin routes.
type AdminHandler struct {
	deps         AdminDependencies
	awaitTimeout time.Duration
	keys         idempotency
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, awaitTimeout time.Duration, keys dedupe.Deduper) *AdminHandler {
	return &AdminHandler{deps: deps, awaitTimeout: awaitTimeout, keys: idempotency{keys: keys}}
}

// HandleChangeRank handles PUT /admin/candidates/{id}/rank requests.
func (h *AdminHandler) HandleChangeRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.change_rank"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	var req rankRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	key, handled := h.keys.claim(w, r)
	if handled {
		return
	}
	gen, err := h.deps.ChangeRank(r.Context(), id, *req.Rank)
	h.keys.settle(r, key, gen, err)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respond(w, r, op, gen)
}

// HandleClear handles POST /admin/clear requests.
func (h *AdminHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	key, handled := h.keys.claim(w, r)
	if handled {
		return
	}
	gen, err := h.deps.ClearAll(r.Context())
	h.keys.settle(r, key, gen, err)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respond(w, r, "api.clear", gen)
}

// HandleRecompute handles POST /admin/recompute requests.
func (h *AdminHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	gen, err := h.deps.Recompute(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respond(w, r, "api.recompute", gen)
}

func (h *AdminHandler) respond(w http.ResponseWriter, r *http.Request, op string, gen uint64) {
	if !wantsWait(r) {
		writeJSON(w, http.StatusAccepted, editResponse{Status: "accepted", Generation: gen})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.awaitTimeout)
	defer cancel()
	rev, err := h.deps.Await(ctx, gen)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, editResponse{
		Status:     "committed",
		Generation: gen,
		Version:    rev.Version,
		Digest:     rev.Digest,
	})
}
