package api

import (
	"net/http"
	"strings"

	"github.com/okian/vacancy/internal/domain/dedupe"
)

// IdempotencyKeyHeader lets clients retry an edit safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// ReplayedHeader marks responses answered from a previous request.
const ReplayedHeader = "Idempotent-Replayed"

type idempotency struct {
	keys dedupe.Deduper
}

// claim records the request's key, scoped by method and path. Requests
// without a key always run and get an empty key back. When the key was used
// before, claim writes the response itself and reports handled.
func (i idempotency) claim(w http.ResponseWriter, r *http.Request) (key string, handled bool) {
	raw := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if raw == "" || i.keys == nil {
		return "", false
	}
	key = r.Method + " " + r.URL.Path + " " + raw
	if !i.keys.SeenAndRecord(r.Context(), key) {
		return key, false
	}

	gen, done := i.keys.Outcome(r.Context(), key)
	if !done {
		writeError(w, http.StatusConflict, "request_in_progress", ErrInProgress)
		return key, true
	}
	w.Header().Set(ReplayedHeader, "true")
	writeJSON(w, http.StatusOK, editResponse{Status: "replayed", Generation: gen})
	return key, true
}

// settle stores the generation an edit produced, or frees the key when the
// edit failed so the client can retry with it.
func (i idempotency) settle(r *http.Request, key string, gen uint64, err error) {
	if key == "" {
		return
	}
	if err != nil {
		i.keys.Unrecord(r.Context(), key)
		return
	}
	i.keys.Complete(r.Context(), key, gen)
}
