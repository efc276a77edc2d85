package filter

import (
	"iter"

	"github.com/okian/mapperator/internal/domain/matching"
	"github.com/okian/mapperator/internal/domain/model"
)

// Default playfield.
const (
	DefaultPlayfieldWidth  = 512
	DefaultPlayfieldHeight = 384
	DefaultPlayfieldInset  = 5
)

// OnScreenOption configures an OnScreenFilter.
type OnScreenOption func(*OnScreenFilter)

// WithPlayfield sets the playfield size and the margin kept free on each side.
func WithPlayfield(width, height, inset float64) OnScreenOption {
	return func(f *OnScreenFilter) {
		if width > 2*inset && height > 2*inset {
			f.bounds = model.Playfield(width, height, inset)
		}
	}
}

// OnScreenFilter truncates matches at the first event that would land
// outside the playfield and drops matches with nothing left.
type OnScreenFilter struct {
	bounds model.Rect
}

// NewOnScreenFilter creates a filter over the default playfield.
func NewOnScreenFilter(opts ...OnScreenOption) *OnScreenFilter {
	f := &OnScreenFilter{
		bounds: model.Playfield(DefaultPlayfieldWidth, DefaultPlayfieldHeight, DefaultPlayfieldInset),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Bounds returns the allowed rectangle.
func (f *OnScreenFilter) Bounds() model.Rect { return f.bounds }

// ValidPrefix returns how many continuation events of m stay on screen
// when placed from state with distances scaled by mult.
func (f *OnScreenFilter) ValidPrefix(state model.State, m matching.Match, mult float64) int {
	for k, e := range m.Continuation() {
		state = state.Advance(e.Spacing*mult, e.Angle, e.BeatGap)
		if !f.bounds.Contains(state.Position) {
			return k
		}
	}
	return m.Length()
}

// FilterMatches implements Filter.
func (f *OnScreenFilter) FilterMatches(ctx *Context, in iter.Seq[matching.Match]) iter.Seq[matching.Match] {
	return func(yield func(matching.Match) bool) {
		for m := range in {
			ctx.Stats.Candidates++
			n := f.ValidPrefix(ctx.State, m, m.ScaleFor(ctx.Pattern[ctx.Index]))
			if n == 0 {
				ctx.Stats.OffScreen++
				continue
			}
			if !yield(m.Truncate(n)) {
				return
			}
		}
	}
}
