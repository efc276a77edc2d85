// Package api exposes the generation service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/mapperator/internal/app"
	"github.com/okian/mapperator/internal/domain/dedupe"
	"github.com/okian/mapperator/internal/domain/model"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	LoadCorpus(ctx context.Context, r io.Reader) error
	GenerateFrom(ctx context.Context, r io.Reader) (service.Output, error)
	GetStats() map[string]any
}

// maxBodyBytes bounds corpus and pattern uploads.
const maxBodyBytes = 256 << 20

// Server wires HTTP routes for the generation API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	corpusHandler   *CorpusHandler
	generateHandler *GenerateHandler
}

// NewServer creates a new API server with all handlers. uploads remembers
// corpus idempotency keys; nil keeps the most recent 1024.
func NewServer(deps Dependencies, uploads dedupe.Deduper[string]) *Server {
	if uploads == nil {
		uploads = dedupe.New[string](dedupe.WithMaxSize(1024))
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		corpusHandler:   NewCorpusHandler(deps, uploads),
		generateHandler: NewGenerateHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/corpus", MetricsMiddleware(s.corpusHandler.HandlePostCorpus, "corpus"))
	mux.HandleFunc("/generate", MetricsMiddleware(s.generateHandler.HandleGenerate, "generate"))
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

// statusOf maps service and decoding errors to a status and error code.
func statusOf(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusBadRequest, "bad_request"
	}
}

func wrap(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// summary is the JSON shape of a generation result.
type summary struct {
	RunID          string                `json:"run_id"`
	DurationMS     float64               `json:"duration_ms"`
	Failures       int                   `json:"failures"`
	PogHits        int                   `json:"pog_hits"`
	Candidates     int                   `json:"candidates"`
	OffScreen      int                   `json:"off_screen"`
	Objects        []model.Object        `json:"objects"`
	ControlChanges []model.ControlChange `json:"control_changes"`
}
