package construct

import (
	"math"

	"github.com/okian/mapperator/internal/domain/filter"
	"github.com/okian/mapperator/internal/domain/matching"
	"github.com/okian/mapperator/internal/domain/model"
	"github.com/okian/mapperator/internal/domain/token"
)

// Run is one generation in progress. It is not safe for concurrent use.
type Run struct {
	c       *Constructor
	pattern []model.Event
	tokens  []token.Token

	i       int
	state   model.State
	last    matching.Match
	hasLast bool
	minLen  *matching.MinLength

	// pending is the index of the object a later release may convert.
	pending int
	res     Result
}

// Step describes one generated position.
type Step struct {
	Index    int
	Match    matching.Match
	Fallback bool
	Pog      bool
	Stats    filter.Stats
}

// Done reports whether every position was generated.
func (r *Run) Done() bool { return r.i >= len(r.pattern) }

// Index returns the next position to generate.
func (r *Run) Index() int { return r.i }

// State returns the current generation state.
func (r *Run) State() model.State { return r.state }

// Result returns the output so far.
func (r *Run) Result() Result { return r.res }

// Step generates the next position.
func (r *Run) Step() (Step, error) {
	if r.Done() {
		return Step{}, ErrDone
	}
	i := r.i

	fctx := &filter.Context{
		Pattern:   r.pattern,
		Index:     i,
		State:     r.state,
		MinLength: r.minLen,
	}
	if r.hasLast && !r.last.IsFallback() && r.last.Length() > 1 {
		pog := r.last.Next()
		if n := r.c.onScreen.ValidPrefix(r.state, pog, pog.ScaleFor(r.pattern[i])); n > 0 {
			pog = pog.Truncate(n)
			fctx.Pog = &pog
		}
	}
	r.minLen.Set(1)

	candidates := r.c.finder.Find(r.pattern, r.tokens, i, r.minLen)
	var (
		chosen matching.Match
		found  bool
	)
	for m := range r.c.pipeline.FilterMatches(fctx, candidates) {
		chosen, found = m, true
		break
	}

	step := Step{Index: i, Stats: fctx.Stats}
	if !found {
		chosen = matching.Fallback(r.pattern, i)
		step.Fallback = true
		r.res.Failures++
	}
	if fctx.Pog != nil && chosen.Position == fctx.Pog.Position {
		step.Pog = true
		r.res.PogHits++
	}
	r.res.Candidates += fctx.Stats.Candidates
	r.res.OffScreen += fctx.Stats.OffScreen

	r.emit(chosen.First(), r.pattern[i].BeatGap, chosen.ScaleFor(r.pattern[i]))

	step.Match = chosen
	r.last, r.hasLast = chosen, true
	r.i++
	return step, nil
}

// emit appends one event with geometry from the match and timing from the
// pattern, then advances the state.
func (r *Run) emit(found model.Event, gap, mult float64) {
	e := found
	e.BeatGap = gap
	e.Spacing = found.Spacing * mult
	if e.HasCurve {
		e.CurveLength = found.CurveLength * mult
	}
	r.res.Events = append(r.res.Events, e)

	r.state = r.state.Advance(e.Spacing, e.Angle, e.BeatGap)
	pos, t := r.state.Position, r.state.Time

	switch e.Kind {
	case model.KindRelease:
		if r.convertSlider(&e, pos, t) {
			return
		}
		r.appendObject(model.Object{Kind: model.ObjectCircle, Start: pos, End: pos, StartTime: t, EndTime: t, GroupFlag: e.GroupFlag, RawPayload: e.RawPayload})
		r.pending = -1
	case model.KindSpinRelease:
		if r.convertSpinner(pos, t) {
			return
		}
		r.appendObject(model.Object{Kind: model.ObjectSpinner, Start: pos, End: pos, StartTime: t, EndTime: t, GroupFlag: e.GroupFlag, RawPayload: e.RawPayload})
		r.pending = -1
	case model.KindSpinStart:
		r.pending = r.appendObject(model.Object{Kind: model.ObjectSpinner, Start: pos, End: pos, StartTime: t, EndTime: t, GroupFlag: e.GroupFlag, RawPayload: e.RawPayload})
	default:
		r.pending = r.appendObject(model.Object{Kind: model.ObjectCircle, Start: pos, End: pos, StartTime: t, EndTime: t, GroupFlag: e.GroupFlag, RawPayload: e.RawPayload})
	}
}

func (r *Run) appendObject(o model.Object) int {
	r.res.Objects = append(r.res.Objects, o)
	return len(r.res.Objects) - 1
}

// convertSlider turns the pending circle into a slider ending at pos.
func (r *Run) convertSlider(e *model.Event, pos model.Vector2, t float64) bool {
	if r.pending < 0 || r.res.Objects[r.pending].Kind != model.ObjectCircle {
		return false
	}
	head := &r.res.Objects[r.pending]
	length := pos.Sub(head.Start).Length()
	if e.HasCurve && e.CurveLength > 0 {
		length = e.CurveLength
	}
	repeats := e.RepeatCount()

	head.Kind = model.ObjectSlider
	head.End = pos
	head.EndTime = t
	head.PixelLength = length
	head.Repeats = repeats
	if e.HasCurve {
		head.CurveKind = e.CurveKind
		head.CurveSegments = e.CurveSegments
	}

	if d := t - head.StartTime; d > 0 {
		v := length * float64(max(repeats, 1)) / d
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			r.res.ControlChanges = append(r.res.ControlChanges, model.ControlChange{Time: head.StartTime, Velocity: v})
		}
	}
	r.pending = -1
	return true
}

// convertSpinner extends the pending spinner to end at t.
func (r *Run) convertSpinner(pos model.Vector2, t float64) bool {
	if r.pending < 0 || r.res.Objects[r.pending].Kind != model.ObjectSpinner {
		return false
	}
	spin := &r.res.Objects[r.pending]
	spin.End = pos
	spin.EndTime = t
	r.pending = -1
	return true
}
