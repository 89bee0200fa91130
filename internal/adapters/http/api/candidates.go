package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/vacancy/internal/domain/dedupe"
	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/types"
)

// CandidateDependencies defines the candidate-facing operations.
type CandidateDependencies interface {
	Roster(ctx context.Context, query string, limit int) []types.RosterEntry
	Candidate(ctx context.Context, id string) (types.CandidateView, error)
	SetPreferences(ctx context.Context, id string, slots []string) (uint64, error)
	Await(ctx context.Context, gen uint64) (model.Revision, error)
}

// CandidatesHandler serves the roster and preference edits.
type CandidatesHandler struct {
	deps         CandidateDependencies
	maxLimit     int
	awaitTimeout time.Duration
	keys         idempotency
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(deps CandidateDependencies, maxLimit int, awaitTimeout time.Duration, keys dedupe.Deduper) *CandidatesHandler {
	return &CandidatesHandler{deps: deps, maxLimit: maxLimit, awaitTimeout: awaitTimeout, keys: idempotency{keys: keys}}
}

// HandleList handles GET /candidates?q=&limit=N requests.
func (h *CandidatesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_candidates"
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrLimitExceeded))
			return
		}
	}
	writeJSON(w, http.StatusOK, h.deps.Roster(r.Context(), r.URL.Query().Get("q"), n))
}

// HandleGet handles GET /candidates/{id} requests.
func (h *CandidatesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	view, err := h.deps.Candidate(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleSetPreferences handles PUT /candidates/{id}/preferences requests.
// With ?wait=true the response is sent once the resulting assignment is
// committed and includes the candidate's slot.
func (h *CandidatesHandler) HandleSetPreferences(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_preferences"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	var req preferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	key, handled := h.keys.claim(w, r)
	if handled {
		return
	}
	gen, err := h.deps.SetPreferences(r.Context(), id, req.Slots)
	h.keys.settle(r, key, gen, err)
	if err != nil {
		writeDomainError(w, err)
		return
	}

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
	view, err := h.deps.Candidate(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, editResponse{
		Status:     "committed",
		Generation: gen,
		Version:    rev.Version,
		Digest:     rev.Digest,
		Candidate:  &view,
	})
}
