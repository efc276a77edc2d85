// Package service wires the corpus index, the matcher and the constructor
// into a long-lived generation service.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mapperator/internal/adapters/codec"
	"github.com/okian/mapperator/internal/adapters/worker"
	"github.com/okian/mapperator/internal/config"
	"github.com/okian/mapperator/internal/domain/construct"
	"github.com/okian/mapperator/internal/domain/filter"
	"github.com/okian/mapperator/internal/domain/matching"
	"github.com/okian/mapperator/internal/domain/model"
	"github.com/okian/mapperator/internal/domain/scoring"
	"github.com/okian/mapperator/internal/domain/token"
	"github.com/okian/mapperator/internal/domain/trie"
	"github.com/okian/mapperator/pkg/logger"
	"github.com/okian/mapperator/pkg/metrics"
)

// Output is the result of one generation run.
type Output struct {
	RunID    string
	Duration time.Duration
	construct.Result
}

// Service owns the corpus index and runs generations against it. Loading a
// corpus swaps the index atomically; runs in flight keep the index they
// started with.
type Service struct {
	mu sync.RWMutex

	cfg    *config.Config
	logger logger.Logger

	// Index state, replaced as a unit by LoadCorpus.
	corpus      [][]model.Event
	index       *trie.Trie
	constructor *construct.Constructor

	judge    *scoring.WeightedJudge
	onScreen *filter.OnScreenFilter
	pool     *worker.Pool

	started bool
	runs    atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. A nil config keeps the defaults.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount overrides the configured number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			c := *s.cfg
			c.WorkerCount = count
			s.cfg = &c
		}
	}
}

// New constructs a Service with an empty corpus.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New()}
	for _, opt := range opts {
		opt(s)
	}

	cfg := s.cfg
	s.judge = scoring.NewWeightedJudge(scoring.WithParams(scoring.Params{
		Sigma:              cfg.Sigma,
		LengthBonus:        cfg.LengthBonus,
		SpacingWeight:      cfg.SpacingWeight,
		AngleWeight:        cfg.AngleWeight,
		DenseAngleWeight:   cfg.DenseAngleWeight,
		DenseSpacing:       cfg.DenseSpacing,
		DenseGap:           cfg.DenseGap,
		GroupWeight:        cfg.GroupWeight,
		CurveLengthWeight:  cfg.CurveLengthWeight,
		CurveDensityWeight: cfg.CurveDensityWeight,
		PogBonus:           cfg.PogBonus,
	}))
	s.onScreen = filter.NewOnScreenFilter(
		filter.WithPlayfield(cfg.PlayfieldWidth, cfg.PlayfieldHeight, cfg.PlayfieldInset),
	)
	return s
}

// Start initializes the service components. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.cfg.WorkerCount > 1 {
		s.pool = worker.NewPool(s.cfg.WorkerCount,
			worker.WithName("scoring-pool"),
			worker.WithLogger(s.logger),
			worker.WithQueueCapacity(s.cfg.ScoreBatchSize*s.cfg.WorkerCount),
		)
		s.pool.Start(ctx)
	}
	// Rebuild so the pipeline picks up the pool.
	if err := s.rebuild(ctx, s.corpus); err != nil {
		return err
	}

	s.started = true
	s.logger.Info(ctx, "generation service started",
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("sequences", len(s.corpus)),
		logger.Int("top_k", s.cfg.TopK),
	)
	return nil
}

// Stop shuts the worker pool down.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
		s.pool = nil
	}
	s.started = false
	s.logger.Info(ctx, "generation service stopped", logger.Int("runs", int(s.runs.Load())))
}

// LoadCorpus decodes every sequence from r, appends them to the corpus and
// rebuilds the index.
func (s *Service) LoadCorpus(ctx context.Context, r io.Reader) error {
	seqs, err := codec.NewReader(r).ReadSequences()
	if err != nil {
		metrics.RecordErrorByComponent("service", "decode_corpus")
		return fmt.Errorf("decode corpus: %w", err)
	}
	if len(seqs) == 0 {
		return ErrEmptyCorpus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	corpus := make([][]model.Event, 0, len(s.corpus)+len(seqs))
	corpus = append(corpus, s.corpus...)
	corpus = append(corpus, seqs...)
	return s.rebuild(ctx, corpus)
}

// LoadCorpusFile loads a corpus from the file at path.
func (s *Service) LoadCorpusFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return s.LoadCorpus(ctx, f)
}

// rebuild indexes corpus and swaps it in. Callers hold the write lock.
func (s *Service) rebuild(ctx context.Context, corpus [][]model.Event) error {
	start := time.Now()
	seqs := make([][]token.Token, len(corpus))
	for i, events := range corpus {
		seqs[i] = token.FromEvents(events)
	}
	index := trie.Build(seqs)

	m, err := matching.NewMatcher(index, corpus,
		matching.WithMaxLength(s.cfg.MaxLength),
		matching.WithMaxLookback(s.cfg.MaxLookback),
		matching.WithTolerances(s.cfg.Tolerances...),
		matching.WithLeniency(s.cfg.LeniencyFactor, s.cfg.LeniencyAbs),
	)
	if err != nil {
		return fmt.Errorf("build matcher: %w", err)
	}

	bestOpts := []filter.BestScoreOption{filter.WithCapacity(s.cfg.TopK)}
	if s.pool != nil {
		bestOpts = append(bestOpts, filter.WithBatchScorer(s.pool, s.cfg.ScoreBatchSize))
	}
	s.corpus = corpus
	s.index = index
	s.constructor = construct.New(m,
		construct.WithOnScreenFilter(s.onScreen),
		construct.WithPipeline(filter.Pipeline{
			s.onScreen,
			filter.NewBestScoreFilter(s.judge, bestOpts...),
		}),
	)

	took := time.Since(start)
	st := index.Stats()
	metrics.UpdateIndexStats(st.Sequences, st.Tokens, st.Nodes)
	metrics.RecordTrieBuildDuration(float64(took.Microseconds()) / 1000)
	if s.logger != nil {
		s.logger.Info(ctx, "corpus indexed",
			logger.Int("sequences", st.Sequences),
			logger.Int("tokens", st.Tokens),
			logger.Int("nodes", st.Nodes),
			logger.Duration("took", took),
		)
	}
	return nil
}

// Generate builds a new event stream following pattern. Cancelling ctx stops
// the run between positions and returns the partial output with the error.
func (s *Service) Generate(ctx context.Context, pattern []model.Event) (Output, error) {
	s.mu.RLock()
	started, c := s.started, s.constructor
	s.mu.RUnlock()

	if !started {
		return Output{}, ErrNotStarted
	}
	if len(pattern) == 0 {
		return Output{}, ErrEmptyPattern
	}

	out := Output{RunID: uuid.NewString()}
	l := s.logger
	start := time.Now()
	s.runs.Add(1)
	metrics.RecordRun()

	run, err := c.Start(pattern)
	if err != nil {
		metrics.RecordErrorByComponent("service", "start_run")
		return out, fmt.Errorf("run %s: %w", out.RunID, err)
	}
	l.Debug(ctx, "generation started", logger.String("run_id", out.RunID), logger.Int("positions", len(pattern)))

	for !run.Done() {
		if err = ctx.Err(); err != nil {
			err = fmt.Errorf("run %s stopped at %d of %d: %w", out.RunID, run.Index(), len(pattern), err)
			break
		}
		var step construct.Step
		if step, err = run.Step(); err != nil {
			err = fmt.Errorf("run %s: %w", out.RunID, err)
			break
		}
		recordStep(step)
	}

	out.Result = run.Result()
	out.Duration = time.Since(start)
	metrics.RecordGenerationDuration(float64(out.Duration.Microseconds()) / 1000)
	if err != nil {
		metrics.RecordErrorByComponent("service", "generate")
		l.Warn(ctx, "generation interrupted", logger.String("run_id", out.RunID), logger.Error(err))
		return out, err
	}

	l.Info(ctx, "generation finished",
		logger.String("run_id", out.RunID),
		logger.Int("events", len(out.Events)),
		logger.Int("objects", len(out.Objects)),
		logger.Int("failures", out.Failures),
		logger.Int("pog_hits", out.PogHits),
		logger.Duration("took", out.Duration),
	)
	return out, nil
}

// GenerateFrom decodes a pattern from r and generates from it.
func (s *Service) GenerateFrom(ctx context.Context, r io.Reader) (Output, error) {
	pattern, err := codec.NewReader(r).ReadEvents()
	if err != nil {
		return Output{}, fmt.Errorf("decode pattern: %w", err)
	}
	return s.Generate(ctx, pattern)
}

func recordStep(step construct.Step) {
	metrics.RecordPositionGenerated()
	metrics.RecordCandidatesFound(step.Stats.Candidates)
	if step.Stats.OffScreen > 0 {
		metrics.RecordCandidatesDropped("on_screen", step.Stats.OffScreen)
	}
	if step.Fallback {
		metrics.RecordFallback()
	}
	if step.Pog {
		metrics.RecordPogHit()
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"runs":        s.runs.Load(),
		"sequences":   len(s.corpus),
	}
	if s.index != nil {
		st := s.index.Stats()
		stats["tokens"] = st.Tokens
		stats["nodes"] = st.Nodes
	}
	return stats
}
