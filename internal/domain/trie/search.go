package trie

import (
	"fmt"
	"iter"
	"math"

	"github.com/okian/mapperator/internal/domain/token"
)

// Find returns every occurrence of query as a contiguous run of tokens.
func (t *Trie) Find(query []token.Token) []Occurrence {
	out, _ := t.FindRange(query, query)
	return out
}

// FindRange returns every occurrence whose i-th token lies within
// [lower[i], upper[i]] for all i. The traversal is depth-first.
func (t *Trie) FindRange(lower, upper []token.Token) ([]Occurrence, error) {
	if len(lower) != len(upper) {
		return nil, ErrLengthMismatch
	}
	if len(lower) == 0 {
		return nil, nil
	}

	type frame struct {
		node  int32
		depth int
	}

	var out []Occurrence
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, c := range t.childrenFrom(f.node, lower[f.depth]) {
			if t.first(c) > symbol(upper[f.depth]) {
				break
			}
			nd := &t.nodes[c]
			d, k, end := f.depth, nd.start, t.end(c)
			for ; k < end && d < len(lower); k++ {
				s := t.symbol(nd.seq, k)
				if s < 0 || token.Token(s) < lower[d] || token.Token(s) > upper[d] {
					break
				}
				d++
			}
			switch {
			case d == len(lower):
				out = t.collect(c, out)
			case k == end:
				stack = append(stack, frame{node: c, depth: d})
			}
		}
	}
	return out, nil
}

// ScaledQuery describes a scale-tolerant search. Min and Max bound each
// token; Target holds the wanted distance of each position in distance
// bucket units.
type ScaledQuery struct {
	Min    []token.Token
	Max    []token.Token
	Target []float64

	// A stored distance d scaled by multiplier m must land within
	// [w/(1+LeniencyFactor) - LeniencyAbs, w*(1+LeniencyFactor) + LeniencyAbs].
	LeniencyFactor float64
	LeniencyAbs    float64
}

// Validate checks that all per-position slices agree in length.
func (q *ScaledQuery) Validate() error {
	if len(q.Min) != len(q.Max) || len(q.Min) != len(q.Target) {
		return ErrLengthMismatch
	}
	return nil
}

// Len returns the query length.
func (q *ScaledQuery) Len() int { return len(q.Min) }

// Interval returns the multipliers under which a stored distance bucket
// satisfies position pos. A stored distance of zero cannot be scaled, so it
// either imposes no constraint or is rejected outright.
func (q *ScaledQuery) Interval(pos int, stored uint8) (lo, hi float64, ok bool) {
	w := q.Target[pos]
	f := 1 + q.LeniencyFactor
	low := w/f - q.LeniencyAbs
	high := w*f + q.LeniencyAbs
	if stored == 0 {
		if low <= 0 {
			return 0, math.Inf(1), true
		}
		return 0, 0, false
	}
	if high < 0 {
		return 0, 0, false
	}
	b := float64(stored)
	return math.Max(low, 0) / b, high / b, true
}

// Result is one occurrence found by SearchScaled. Length is the number of
// matched tokens starting at the occurrence offset.
type Result struct {
	Occurrence
	Length  int
	MinMult float64
	MaxMult float64
}

type scaledState struct {
	node  int32
	depth int
	lo    float64
	hi    float64
}

// SearchScaled walks the trie breadth-first and yields every occurrence
// exactly once, with its longest prefix length that stays within the token
// bounds and admits a common multiplier. Occurrences shorter than
// minLength() are skipped; minLength is re-evaluated before each yield so a
// caller may raise it while consuming results. A query whose slices
// disagree in length is rejected with ErrLengthMismatch before any search.
func (t *Trie) SearchScaled(q ScaledQuery, minLength func() int) (iter.Seq[Result], error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("trie: scaled query with %d min, %d max and %d targets: %w", len(q.Min), len(q.Max), len(q.Target), err)
	}
	return func(yield func(Result) bool) {
		if q.Len() == 0 {
			return
		}

		queue := []scaledState{{node: root, lo: 0, hi: math.Inf(1)}}
		for head := 0; head < len(queue); head++ {
			st := queue[head]
			for _, c := range t.nodes[st.node].children {
				next, consumed := t.descend(c, st, &q)
				if consumed && next.depth < q.Len() {
					queue = append(queue, next)
					continue
				}
				if next.depth == 0 || next.depth < minLength() {
					continue
				}
				if !t.emit(next, minLength, yield) {
					return
				}
			}
		}
	}, nil
}

// descend walks the edge into c from st, narrowing the multiplier interval
// token by token. It reports whether the whole label was matched.
func (t *Trie) descend(c int32, st scaledState, q *ScaledQuery) (scaledState, bool) {
	nd := &t.nodes[c]
	next := scaledState{node: c, depth: st.depth, lo: st.lo, hi: st.hi}
	k, end := nd.start, t.end(c)
	for ; k < end && next.depth < q.Len(); k++ {
		s := t.symbol(nd.seq, k)
		if s < 0 {
			break
		}
		tok := token.Token(s)
		if tok < q.Min[next.depth] || tok > q.Max[next.depth] {
			break
		}
		lo, hi, ok := q.Interval(next.depth, tok.Dist())
		if !ok {
			break
		}
		lo, hi = math.Max(lo, next.lo), math.Min(hi, next.hi)
		if lo > hi {
			break
		}
		next.lo, next.hi = lo, hi
		next.depth++
	}
	return next, k == end
}

func (t *Trie) emit(st scaledState, minLength func() int, yield func(Result) bool) bool {
	for _, occ := range t.collect(st.node, nil) {
		if st.depth < minLength() {
			return true
		}
		if !yield(Result{Occurrence: occ, Length: st.depth, MinMult: st.lo, MaxMult: st.hi}) {
			return false
		}
	}
	return true
}
