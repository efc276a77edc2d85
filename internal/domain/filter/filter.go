// Package filter narrows the matcher's candidates down to the ones worth
// emitting.
package filter

import (
	"iter"

	"github.com/okian/mapperator/internal/domain/matching"
	"github.com/okian/mapperator/internal/domain/model"
)

// Context is the per-position state shared by the filters of a pipeline.
type Context struct {
	Pattern []model.Event
	Index   int
	State   model.State

	// Pog is the continuation of the previously emitted match, if any.
	Pog *matching.Match

	MinLength *matching.MinLength
	Stats     Stats
}

// Stats counts what the filters saw at one position.
type Stats struct {
	Candidates int // matches entering the first filter that counts them
	OffScreen  int // matches dropped for leaving the playfield
	Scored     int // judge invocations
}

// Filter transforms a stream of matches.
type Filter interface {
	FilterMatches(ctx *Context, in iter.Seq[matching.Match]) iter.Seq[matching.Match]
}

// Pipeline applies filters in order.
type Pipeline []Filter

// FilterMatches implements Filter.
func (p Pipeline) FilterMatches(ctx *Context, in iter.Seq[matching.Match]) iter.Seq[matching.Match] {
	for _, f := range p {
		in = f.FilterMatches(ctx, in)
	}
	return in
}
