package filter

import (
	"iter"

	"github.com/okian/mapperator/internal/domain/matching"
	"github.com/okian/mapperator/internal/domain/ranking"
	"github.com/okian/mapperator/internal/domain/scoring"
)

const (
	defaultCapacity  = 1
	defaultBatchSize = 64
)

// BatchScorer evaluates scoring functions, possibly in parallel, and
// returns their results in order.
type BatchScorer interface {
	ScoreBatch(fns []func() float64) ([]float64, error)
}

// BestScoreOption configures a BestScoreFilter.
type BestScoreOption func(*BestScoreFilter)

// WithCapacity sets how many candidates are kept.
func WithCapacity(k int) BestScoreOption {
	return func(f *BestScoreFilter) {
		if k > 0 {
			f.capacity = k
		}
	}
}

// WithBatchScorer scores candidates in batches of size through s. Queue
// updates and the minimum length feedback happen after each batch.
func WithBatchScorer(s BatchScorer, size int) BestScoreOption {
	return func(f *BestScoreFilter) {
		f.scorer = s
		if size > 0 {
			f.batchSize = size
		}
	}
}

// BestScoreFilter keeps the highest scoring candidates and yields them best
// first. A continuation of the previous match gets the judge's pog bonus.
type BestScoreFilter struct {
	judge     scoring.Judge
	capacity  int
	scorer    BatchScorer
	batchSize int
}

// NewBestScoreFilter creates a filter keeping the single best candidate
// unless WithCapacity says otherwise.
func NewBestScoreFilter(judge scoring.Judge, opts ...BestScoreOption) *BestScoreFilter {
	f := &BestScoreFilter{
		judge:     judge,
		capacity:  defaultCapacity,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Score rates m for the position described by ctx.
func (f *BestScoreFilter) Score(ctx *Context, m matching.Match) float64 {
	wanted := matching.Wanted(ctx.Pattern, ctx.Index, m)
	return f.judge.Judge(m.Events, wanted, m.Lookback, m.ScaleFor(ctx.Pattern[ctx.Index]))
}

// FilterMatches implements Filter.
func (f *BestScoreFilter) FilterMatches(ctx *Context, in iter.Seq[matching.Match]) iter.Seq[matching.Match] {
	return func(yield func(matching.Match) bool) {
		q, err := ranking.NewTopK[matching.Match](f.capacity)
		if err != nil {
			return
		}

		offer := func(m matching.Match, score float64) {
			if q.Push(m, score) && q.Full() {
				if low, ok := q.Min(); ok && ctx.MinLength != nil {
					ctx.MinLength.Raise(f.judge.MinLengthForScore(low))
				}
			}
		}

		if ctx.Pog != nil {
			ctx.Stats.Scored++
			offer(*ctx.Pog, f.Score(ctx, *ctx.Pog)+f.judge.PogScore())
		}
		isPog := func(m matching.Match) bool {
			return ctx.Pog != nil && m.Position == ctx.Pog.Position
		}

		if f.scorer == nil {
			for m := range in {
				if isPog(m) {
					continue
				}
				ctx.Stats.Scored++
				offer(m, f.Score(ctx, m))
			}
		} else {
			batch := make([]matching.Match, 0, f.batchSize)
			flush := func() {
				if len(batch) == 0 {
					return
				}
				for i, s := range f.scoreBatch(ctx, batch) {
					offer(batch[i], s)
				}
				batch = batch[:0]
			}
			for m := range in {
				if isPog(m) {
					continue
				}
				batch = append(batch, m)
				if len(batch) == f.batchSize {
					flush()
				}
			}
			flush()
		}

		for _, e := range q.Drain() {
			if !yield(e.Item) {
				return
			}
		}
	}
}

// scoreBatch scores through the batch scorer, falling back to scoring in
// place when it fails.
func (f *BestScoreFilter) scoreBatch(ctx *Context, batch []matching.Match) []float64 {
	ctx.Stats.Scored += len(batch)
	fns := make([]func() float64, len(batch))
	for i := range batch {
		m := batch[i]
		fns[i] = func() float64 { return f.Score(ctx, m) }
	}
	if scores, err := f.scorer.ScoreBatch(fns); err == nil && len(scores) == len(batch) {
		return scores
	}
	scores := make([]float64, len(batch))
	for i, fn := range fns {
		scores[i] = fn()
	}
	return scores
}
