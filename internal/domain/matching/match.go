// Package matching retrieves corpus passages that resemble a window of the
// wanted pattern.
package matching

import (
	"math"
	"sync/atomic"

	"github.com/okian/mapperator/internal/domain/model"
)

// FallbackSeq marks a match that does not come from the corpus.
const FallbackSeq = -1

// Position is an absolute corpus position.
type Position struct {
	Seq    int
	Offset int
}

// Match is an immutable view of a corpus passage. Events holds Lookback
// context events followed by the continuation; Position is where the first
// continuation event lives in the corpus.
type Match struct {
	Events   []model.Event
	Lookback int
	Position Position
	MinMult  float64
	MaxMult  float64
}

// Length returns the number of continuation events.
func (m Match) Length() int {
	if n := len(m.Events) - m.Lookback; n > 0 {
		return n
	}
	return 0
}

// Continuation returns the events after the lookback.
func (m Match) Continuation() []model.Event {
	if m.Lookback >= len(m.Events) {
		return nil
	}
	return m.Events[m.Lookback:]
}

// First returns the first continuation event.
func (m Match) First() model.Event {
	return m.Events[m.Lookback]
}

// Next returns the match advanced by one continuation event. The emitted
// event becomes context, so the lookback count is unchanged.
func (m Match) Next() Match {
	if m.Length() == 0 {
		return m
	}
	next := m
	next.Events = m.Events[1:]
	next.Position.Offset++
	return next
}

// Truncate keeps the first n continuation events.
func (m Match) Truncate(n int) Match {
	if n < 0 {
		n = 0
	}
	if n >= m.Length() {
		return m
	}
	out := m
	out.Events = m.Events[:m.Lookback+n]
	return out
}

// Multiplier picks the scale closest to 1 within [MinMult, MaxMult].
func (m Match) Multiplier() float64 {
	lo, hi := m.MinMult, m.MaxMult
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return 1
	}
	return math.Min(math.Max(1, lo), hi)
}

// ScaleFor picks the scale within [MinMult, MaxMult] that places the first
// continuation event at the wanted spacing. It falls back to Multiplier when
// either spacing is unusable.
func (m Match) ScaleFor(wanted model.Event) float64 {
	lo, hi := m.MinMult, m.MaxMult
	if m.Length() == 0 || math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return m.Multiplier()
	}
	found := m.First().Spacing
	if !usableSpacing(found) || !usableSpacing(wanted.Spacing) {
		return m.Multiplier()
	}
	return math.Min(math.Max(wanted.Spacing/found, lo), hi)
}

func usableSpacing(s float64) bool {
	return s > 0 && !math.IsInf(s, 0)
}

// IsFallback reports whether m was synthesized from the pattern.
func (m Match) IsFallback() bool { return m.Position.Seq == FallbackSeq }

// Fallback returns a single-event match made of the wanted event itself.
func Fallback(pattern []model.Event, i int) Match {
	return Match{
		Events:   pattern[i : i+1],
		Position: Position{Seq: FallbackSeq, Offset: i},
		MinMult:  1,
		MaxMult:  1,
	}
}

// MinLength is a minimum continuation length shared between the matcher and
// the filters that prune it.
type MinLength struct {
	v atomic.Int64
}

// NewMinLength returns a handle holding v.
func NewMinLength(v int) *MinLength {
	m := &MinLength{}
	m.v.Store(int64(v))
	return m
}

// Get returns the current minimum.
func (m *MinLength) Get() int { return int(m.v.Load()) }

// Set overwrites the minimum.
func (m *MinLength) Set(v int) { m.v.Store(int64(v)) }

// Raise increases the minimum to v if v is larger.
func (m *MinLength) Raise(v int) {
	for {
		cur := m.v.Load()
		if int64(v) <= cur || m.v.CompareAndSwap(cur, int64(v)) {
			return
		}
	}
}
