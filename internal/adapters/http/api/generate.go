package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/mapperator/internal/app"
	"github.com/okian/mapperator/internal/adapters/codec"
)

// Response headers carrying run details next to an interchange body.
const (
	HeaderRunID    = "X-Run-Id"
	HeaderFailures = "X-Failures"
	HeaderPogHits  = "X-Pog-Hits"
)

// Generator runs generations from an encoded pattern.
type Generator interface {
	GenerateFrom(ctx context.Context, r io.Reader) (service.Output, error)
}

// GenerateHandler handles generation requests.
type GenerateHandler struct {
	gen Generator
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(gen Generator) *GenerateHandler {
	return &GenerateHandler{gen: gen}
}

// HandleGenerate handles POST /generate requests. The body is a pattern in
// the interchange format. The response carries the generated events in the
// same format, or a JSON summary with objects when the client accepts JSON.
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	out, err := h.gen.GenerateFrom(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status, code := statusOf(err)
		writeError(w, status, code, wrap(op, ErrBadRequest, err))
		return
	}

	w.Header().Set(HeaderRunID, out.RunID)
	w.Header().Set(HeaderFailures, strconv.Itoa(out.Failures))
	w.Header().Set(HeaderPogHits, strconv.Itoa(out.PogHits))

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, summary{
			RunID:          out.RunID,
			DurationMS:     float64(out.Duration.Microseconds()) / 1000,
			Failures:       out.Failures,
			PogHits:        out.PogHits,
			Candidates:     out.Candidates,
			OffScreen:      out.OffScreen,
			Objects:        out.Objects,
			ControlChanges: out.ControlChanges,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	cw := codec.NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return
	}
	if err := cw.WriteEvents(out.Events); err != nil {
		return
	}
	_ = cw.Flush()
}
