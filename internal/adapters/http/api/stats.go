package api

import (
	"maps"
	"net/http"
	"time"
)

// EngineStats reports index sizes and run counters of the engine.
type EngineStats interface {
	GetStats() map[string]any
}

// StatsHandler serves the engine counters together with the API uptime.
type StatsHandler struct {
	engine EngineStats
	since  time.Time
}

// NewStatsHandler creates a stats handler whose uptime starts now.
func NewStatsHandler(engine EngineStats) *StatsHandler {
	return &StatsHandler{engine: engine, since: time.Now()}
}

// HandleStats handles GET /stats requests. The counters change with every
// corpus upload and run, so responses are never cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	body := maps.Clone(h.engine.GetStats())
	if body == nil {
		body = make(map[string]any, 1)
	}
	body["uptime_seconds"] = time.Since(h.since).Seconds()

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, body)
}
