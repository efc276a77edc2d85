// Package token quantizes events into the discrete alphabet of the trie.
//
// The quantization is lossy on purpose: the trie is a coarse pre-filter and
// geometric similarity is re-checked by range bounds at search time.
package token

import (
	"math"

	"github.com/okian/mapperator/internal/domain/model"
)

// Quantization constants.
const (
	GapResolution = 4  // log2 offset so that 1/16 beat lands in bucket 0
	GapBuckets    = 10 // strike gap buckets
	CoarseGaps    = 3  // gap classes for release and spin kinds
	RepeatClasses = 3  // release repeat classes (1, 2, 3+)

	StrikeDistanceScale = 4.0
	CoarseDistanceScale = 12.0
	MaxDistance         = 255
)

// Type class layout.
const (
	strikeBase      = 0
	releaseBase     = strikeBase + GapBuckets
	spinStartBase   = releaseBase + RepeatClasses*CoarseGaps
	spinReleaseBase = spinStartBase + CoarseGaps
	typeCount       = spinReleaseBase + CoarseGaps
)

// Token is a quantized event. The high byte holds the type class and the low
// byte the distance bucket, so integer order is type first, distance second.
type Token uint16

// New builds a token from its components.
func New(typ, dist uint8) Token {
	return Token(uint16(typ)<<8 | uint16(dist))
}

// Type returns the type class.
func (t Token) Type() uint8 { return uint8(t >> 8) }

// Dist returns the distance bucket.
func (t Token) Dist() uint8 { return uint8(t) }

// WithDist returns t with its distance bucket replaced.
func (t Token) WithDist(d uint8) Token { return New(t.Type(), d) }

// Shift returns t with its distance bucket moved by delta, clamped to the
// valid bucket range.
func (t Token) Shift(delta int) Token {
	return t.WithDist(uint8(clamp(int(t.Dist())+delta, 0, MaxDistance)))
}

// Types returns the number of type classes in use.
func Types() int { return typeCount }

// FromEvent quantizes a single event.
func FromEvent(e *model.Event) Token {
	switch e.Kind {
	case model.KindRelease:
		repeat := clamp(e.RepeatCount(), 1, RepeatClasses) - 1
		typ := releaseBase + repeat*CoarseGaps + CoarseGap(e.BeatGap)
		return New(uint8(typ), distance(e.Spacing, CoarseDistanceScale))
	case model.KindSpinStart:
		return New(uint8(spinStartBase+CoarseGap(e.BeatGap)), distance(e.Spacing, CoarseDistanceScale))
	case model.KindSpinRelease:
		return New(uint8(spinReleaseBase+CoarseGap(e.BeatGap)), distance(e.Spacing, CoarseDistanceScale))
	default:
		return New(uint8(strikeBase+GapBucket(e.BeatGap)), distance(e.Spacing, StrikeDistanceScale))
	}
}

// FromEvents quantizes a sequence.
func FromEvents(events []model.Event) []Token {
	out := make([]Token, len(events))
	for i := range events {
		out[i] = FromEvent(&events[i])
	}
	return out
}

// GapBucket maps a beat gap onto the logarithmic strike scale.
func GapBucket(gap float64) int {
	if gap <= 0 || math.IsNaN(gap) {
		return 0
	}
	return clamp(int(math.Round(math.Log2(gap)+GapResolution)), 0, GapBuckets-1)
}

// CoarseGap maps a beat gap onto three classes: short, one beat, long.
func CoarseGap(gap float64) int {
	if gap <= 0 || math.IsNaN(gap) {
		return 0
	}
	return clamp(int(math.Round(math.Log2(gap)))+1, 0, CoarseGaps-1)
}

// DistanceScale returns the spacing units per distance bucket for a token type.
func DistanceScale(typ uint8) float64 {
	if int(typ) < releaseBase {
		return StrikeDistanceScale
	}
	return CoarseDistanceScale
}

func distance(spacing, scale float64) uint8 {
	if spacing <= 0 || math.IsNaN(spacing) {
		return 0
	}
	return uint8(clamp(int(math.Round(spacing/scale)), 0, MaxDistance))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
