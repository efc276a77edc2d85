// Package construct stitches matches into a new event stream, one output
// position at a time.
package construct

import (
	"context"
	"fmt"
	"iter"

	"github.com/okian/mapperator/internal/domain/filter"
	"github.com/okian/mapperator/internal/domain/matching"
	"github.com/okian/mapperator/internal/domain/model"
	"github.com/okian/mapperator/internal/domain/scoring"
	"github.com/okian/mapperator/internal/domain/token"
)

// Finder yields candidate matches for a pattern position.
type Finder interface {
	Check(pattern []model.Event, tokens []token.Token, i int) error
	Find(pattern []model.Event, tokens []token.Token, i int, minLen *matching.MinLength) iter.Seq[matching.Match]
}

// Result is the output of a generation run.
type Result struct {
	Events         []model.Event
	Objects        []model.Object
	ControlChanges []model.ControlChange

	Failures   int // positions that used the fallback match
	PogHits    int // positions that continued the previous match
	Candidates int // matches produced by the finder
	OffScreen  int // matches dropped for leaving the playfield
}

// Option applies a configuration option to the Constructor.
type Option func(*Constructor)

// WithPipeline replaces the filter pipeline.
func WithPipeline(p filter.Pipeline) Option {
	return func(c *Constructor) {
		if len(p) > 0 {
			c.pipeline = p
		}
	}
}

// WithOnScreenFilter sets the filter used to validate continuations.
func WithOnScreenFilter(f *filter.OnScreenFilter) Option {
	return func(c *Constructor) {
		if f != nil {
			c.onScreen = f
		}
	}
}

// WithStartState sets where generation begins.
func WithStartState(s model.State) Option {
	return func(c *Constructor) {
		c.start = &s
	}
}

// Constructor owns the generation loop configuration. It holds no per-run
// state and may start any number of runs.
type Constructor struct {
	finder   Finder
	pipeline filter.Pipeline
	onScreen *filter.OnScreenFilter
	start    *model.State
}

// New creates a constructor. Without options it filters through the default
// playfield and keeps the single best candidate under the default judge.
func New(finder Finder, opts ...Option) *Constructor {
	c := &Constructor{finder: finder}
	for _, opt := range opts {
		opt(c)
	}
	if c.onScreen == nil {
		c.onScreen = onScreenOf(c.pipeline)
	}
	if c.pipeline == nil {
		c.pipeline = filter.Pipeline{c.onScreen, filter.NewBestScoreFilter(scoring.NewWeightedJudge())}
	}
	return c
}

func onScreenOf(p filter.Pipeline) *filter.OnScreenFilter {
	for _, f := range p {
		if osf, ok := f.(*filter.OnScreenFilter); ok {
			return osf
		}
	}
	return filter.NewOnScreenFilter()
}

// Generate runs every position of pattern. ctx is checked between positions;
// on cancellation the partial result is returned with the error.
func (c *Constructor) Generate(ctx context.Context, pattern []model.Event) (Result, error) {
	run, err := c.Start(pattern)
	if err != nil {
		return Result{}, err
	}
	for !run.Done() {
		if err := ctx.Err(); err != nil {
			return run.Result(), fmt.Errorf("generation stopped at %d of %d: %w", run.Index(), len(pattern), err)
		}
		if _, err := run.Step(); err != nil {
			return run.Result(), err
		}
	}
	return run.Result(), nil
}

// Start validates pattern and prepares a run.
func (c *Constructor) Start(pattern []model.Event) (*Run, error) {
	if len(pattern) == 0 {
		return nil, ErrEmptyPattern
	}
	for i := range pattern {
		if !pattern[i].Kind.Valid() {
			return nil, fmt.Errorf("%w: event %d has kind %d", ErrInvalidEvent, i, pattern[i].Kind)
		}
	}
	tokens := token.FromEvents(pattern)
	if err := c.finder.Check(pattern, tokens, 0); err != nil {
		return nil, err
	}

	state := model.State{Position: c.onScreen.Bounds().Center()}
	if c.start != nil {
		state = *c.start
	}
	return &Run{
		c:       c,
		pattern: pattern,
		tokens:  tokens,
		state:   state,
		minLen:  matching.NewMinLength(1),
		res: Result{
			Events:  make([]model.Event, 0, len(pattern)),
			Objects: make([]model.Object, 0, len(pattern)),
		},
		pending: -1,
	}, nil
}
