package matching

import (
	"fmt"
	"iter"

	"github.com/okian/mapperator/internal/domain/dedupe"
	"github.com/okian/mapperator/internal/domain/model"
	"github.com/okian/mapperator/internal/domain/token"
	"github.com/okian/mapperator/internal/domain/trie"
)

// Default search settings.
const (
	defaultMaxLength      = 32
	defaultMaxLookback    = 8
	defaultLeniencyFactor = 0.25
	defaultLeniencyAbs    = 1
)

var defaultTolerances = []int{0, 3, 9}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithMaxLength sets the longest query window.
func WithMaxLength(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.maxLength = n
		}
	}
}

// WithMaxLookback caps how many already generated events a query includes.
func WithMaxLookback(n int) Option {
	return func(m *Matcher) {
		if n >= 0 {
			m.maxLookback = n
		}
	}
}

// WithTolerances sets the distance bucket widths tried for every window,
// narrowest first.
func WithTolerances(widths ...int) Option {
	return func(m *Matcher) {
		if len(widths) > 0 {
			m.tolerances = append([]int(nil), widths...)
		}
	}
}

// WithLeniency sets how far a scaled distance may stray from the wanted one.
func WithLeniency(factor, abs float64) Option {
	return func(m *Matcher) {
		if factor >= 0 {
			m.leniencyFactor = factor
		}
		if abs >= 0 {
			m.leniencyAbs = abs
		}
	}
}

// Matcher queries the token trie for passages resembling the pattern around
// a given index. It is read-only and safe for concurrent use.
type Matcher struct {
	index  *trie.Trie
	corpus [][]model.Event

	maxLength      int
	maxLookback    int
	tolerances     []int
	leniencyFactor float64
	leniencyAbs    float64
}

// NewMatcher creates a matcher over an index built from corpus, one trie
// sequence per corpus sequence in the same order.
func NewMatcher(index *trie.Trie, corpus [][]model.Event, opts ...Option) (*Matcher, error) {
	st := index.Stats()
	if st.Sequences != len(corpus) {
		return nil, fmt.Errorf("%w: %d indexed sequences, %d corpus sequences", ErrCorpusMismatch, st.Sequences, len(corpus))
	}
	for i, seq := range corpus {
		if got := len(index.Sequence(i)); got != len(seq) {
			return nil, fmt.Errorf("%w: sequence %d has %d tokens and %d events", ErrCorpusMismatch, i, got, len(seq))
		}
	}

	m := &Matcher{
		index:          index,
		corpus:         corpus,
		maxLength:      defaultMaxLength,
		maxLookback:    defaultMaxLookback,
		tolerances:     defaultTolerances,
		leniencyFactor: defaultLeniencyFactor,
		leniencyAbs:    defaultLeniencyAbs,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Check validates the arguments of Find.
func (m *Matcher) Check(pattern []model.Event, tokens []token.Token, i int) error {
	if len(pattern) != len(tokens) {
		return fmt.Errorf("matching: %d events and %d tokens: %w", len(pattern), len(tokens), trie.ErrLengthMismatch)
	}
	if i < 0 || i >= len(pattern) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(pattern))
	}
	return nil
}

// Find yields candidate matches for position i of pattern, longest windows
// and narrowest tolerances first. Each corpus position is yielded at most
// once. minLen may be raised while consuming results to prune the search.
// Invalid arguments yield nothing; see Check.
func (m *Matcher) Find(pattern []model.Event, tokens []token.Token, i int, minLen *MinLength) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		if m.Check(pattern, tokens, i) != nil {
			return
		}
		n := len(pattern)
		seen := dedupe.New[Position]()

		for length := min(m.maxLength, n); length > 0; length-- {
			if length < minLen.Get() {
				return
			}
			lookback := clamp(min(length/2, m.maxLookback), i+length-n, i)
			if length-lookback < minLen.Get() {
				continue
			}
			window := tokens[i-lookback : i-lookback+length]
			threshold := func() int { return max(minLen.Get()+lookback, lookback+1) }

			for _, width := range m.tolerances {
				q := m.query(window, width)
				results, err := m.index.SearchScaled(q, threshold)
				if err != nil {
					return
				}
				for r := range results {
					pos := Position{Seq: r.Seq, Offset: r.Offset + lookback}
					if seen.SeenAndRecord(pos) {
						continue
					}
					match := Match{
						Events:   m.corpus[r.Seq][r.Offset : r.Offset+r.Length],
						Lookback: lookback,
						Position: pos,
						MinMult:  r.MinMult,
						MaxMult:  r.MaxMult,
					}
					if !yield(match) {
						return
					}
				}
			}
		}
	}
}

func (m *Matcher) query(window []token.Token, width int) trie.ScaledQuery {
	q := trie.ScaledQuery{
		Min:            make([]token.Token, len(window)),
		Max:            make([]token.Token, len(window)),
		Target:         make([]float64, len(window)),
		LeniencyFactor: m.leniencyFactor,
		LeniencyAbs:    m.leniencyAbs,
	}
	for k, t := range window {
		q.Min[k] = t.Shift(-width)
		q.Max[k] = t.Shift(width)
		q.Target[k] = float64(t.Dist())
	}
	return q
}

// Wanted returns the pattern events aligned with a match found for
// position i.
func Wanted(pattern []model.Event, i int, m Match) []model.Event {
	start := i - m.Lookback
	if start < 0 {
		start = 0
	}
	end := min(start+len(m.Events), len(pattern))
	return pattern[start:end]
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
