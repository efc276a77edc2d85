package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/okian/mapperator/internal/domain/dedupe"
)

// IdempotencyHeader names a client chosen key for corpus uploads.
const IdempotencyHeader = "Idempotency-Key"

// CorpusLoader loads corpus sequences.
type CorpusLoader interface {
	LoadCorpus(ctx context.Context, r io.Reader) error
}

// CorpusHandler handles corpus uploads.
type CorpusHandler struct {
	loader  CorpusLoader
	uploads dedupe.Deduper[string]
}

// NewCorpusHandler creates a new corpus handler.
func NewCorpusHandler(loader CorpusLoader, uploads dedupe.Deduper[string]) *CorpusHandler {
	return &CorpusHandler{loader: loader, uploads: uploads}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostCorpus handles POST /corpus requests. The body is in the
// interchange format; its sequences are appended to the corpus. A repeated
// Idempotency-Key is acknowledged without loading the body again.
func (h *CorpusHandler) HandlePostCorpus(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_corpus"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" && h.uploads.SeenAndRecord(key) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := h.loader.LoadCorpus(r.Context(), body); err != nil {
		// Let the client retry under the same key.
		if key != "" {
			h.uploads.Unrecord(key)
		}
		status, code := statusOf(err)
		writeError(w, status, code, wrap(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "loaded"})
}
