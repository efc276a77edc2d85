package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// durationBuckets covers sub-millisecond searches up to multi-second builds.
var durationBuckets = []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000} //nolint:gochecknoglobals // bucket layout

// Subsystems of the metric names.
const (
	engineSubsystem = "engine"
	httpSubsystem   = "http"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace       string
	durationBuckets []float64
	batchBuckets    []float64
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Index
	sequencesIndexed  prometheus.Gauge
	tokensIndexed     prometheus.Gauge
	trieNodes         prometheus.Gauge
	trieBuildDuration prometheus.Histogram

	// Generation
	runsTotal          prometheus.Counter
	positionsGenerated prometheus.Counter
	generationDuration prometheus.Histogram
	candidatesFound    prometheus.Counter
	candidatesDropped  *prometheus.CounterVec
	fallbacks          prometheus.Counter
	pogHits            prometheus.Counter

	// Worker pool
	workerCount     prometheus.Gauge
	workerBatches   prometheus.Counter
	workerBatchSize prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager. Metrics are registered on the
// default registerer unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "mapperator",
		durationBuckets: durationBuckets,
		batchBuckets:    prometheus.ExponentialBuckets(1, 2, 10),
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.sequencesIndexed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "sequences_indexed",
		Help: "Number of corpus sequences in the token index",
	})
	m.tokensIndexed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "tokens_indexed",
		Help: "Number of corpus tokens in the token index",
	})
	m.trieNodes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "trie_nodes",
		Help: "Number of nodes in the suffix trie",
	})
	m.trieBuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name:    "trie_build_duration_milliseconds",
		Help:    "Time spent building the suffix trie",
		Buckets: m.durationBuckets,
	})

	m.runsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "runs_total",
		Help: "Total number of generation runs",
	})
	m.positionsGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "positions_generated_total",
		Help: "Total number of output positions generated",
	})
	m.generationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name:    "generation_duration_milliseconds",
		Help:    "Duration of whole generation runs",
		Buckets: m.durationBuckets,
	})
	m.candidatesFound = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "candidates_found_total",
		Help: "Total number of candidate matches returned by the matcher",
	})
	m.candidatesDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "candidates_dropped_total",
		Help: "Total number of candidate matches dropped, by filter",
	}, []string{"filter"})
	m.fallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "fallbacks_total",
		Help: "Total number of positions that used the fallback match",
	})
	m.pogHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "pog_hits_total",
		Help: "Total number of positions that continued the previous match",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "worker_count",
		Help: "Number of scoring workers",
	})
	m.workerBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "worker_batches_total",
		Help: "Total number of scoring batches handed to the worker pool",
	})
	m.workerBatchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name:    "worker_batch_size",
		Help:    "Number of candidates per scoring batch",
		Buckets: m.batchBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: httpSubsystem, ConstLabels: labels,
		Name: "requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: httpSubsystem, ConstLabels: labels,
		Name:    "request_duration_milliseconds",
		Help:    "HTTP request duration",
		Buckets: m.durationBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: engineSubsystem, ConstLabels: labels,
		Name: "errors_total",
		Help: "Total number of errors by component and type",
	}, []string{"component", "error_type"})
}

// UpdateIndexStats sets the index size gauges.
func UpdateIndexStats(sequences, tokens, nodes int) {
	globalManager.sequencesIndexed.Set(float64(sequences))
	globalManager.tokensIndexed.Set(float64(tokens))
	globalManager.trieNodes.Set(float64(nodes))
}

// RecordTrieBuildDuration records a trie build duration in milliseconds.
func RecordTrieBuildDuration(ms float64) {
	globalManager.trieBuildDuration.Observe(ms)
}

// RecordRun increments the generation run counter.
func RecordRun() {
	globalManager.runsTotal.Inc()
}

// RecordPositionGenerated increments the generated positions counter.
func RecordPositionGenerated() {
	globalManager.positionsGenerated.Inc()
}

// RecordGenerationDuration records a generation run duration in milliseconds.
func RecordGenerationDuration(ms float64) {
	globalManager.generationDuration.Observe(ms)
}

// RecordCandidatesFound adds n matcher candidates.
func RecordCandidatesFound(n int) {
	globalManager.candidatesFound.Add(float64(n))
}

// RecordCandidatesDropped adds n candidates dropped by filter.
func RecordCandidatesDropped(filter string, n int) {
	globalManager.candidatesDropped.WithLabelValues(filter).Add(float64(n))
}

// RecordFallback increments the fallback counter.
func RecordFallback() {
	globalManager.fallbacks.Inc()
}

// RecordPogHit increments the continuation counter.
func RecordPogHit() {
	globalManager.pogHits.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerBatch records one scoring batch of the given size.
func RecordWorkerBatch(size int) {
	globalManager.workerBatches.Inc()
	globalManager.workerBatchSize.Observe(float64(size))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
