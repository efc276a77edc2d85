package scoring

import (
	"math"
	"sort"

	"github.com/okian/mapperator/internal/domain/model"
)

// maxTable bounds the precomputed cumulative bonus. Far beyond a few sigma
// the Gaussian adds nothing representable.
const maxTable = 1024

// Option applies a configuration option to the WeightedJudge.
type Option func(*WeightedJudge)

// WithParams replaces every weight. A non-positive Sigma keeps the default.
func WithParams(p Params) Option {
	return func(j *WeightedJudge) {
		if p.Sigma <= 0 {
			p.Sigma = j.params.Sigma
		}
		j.params = p
	}
}

// WithSigma sets the width of the positional Gaussian.
func WithSigma(sigma float64) Option {
	return func(j *WeightedJudge) {
		if sigma > 0 {
			j.params.Sigma = sigma
		}
	}
}

// WithPogBonus sets the continuation bonus.
func WithPogBonus(bonus float64) Option {
	return func(j *WeightedJudge) {
		j.params.PogBonus = bonus
	}
}

// WeightedJudge sums a Gaussian-weighted length bonus minus weighted
// geometric penalties over the continuation events.
type WeightedJudge struct {
	params Params
	// cumulative[l] is the best possible score of a match of length l.
	cumulative []float64
}

// NewWeightedJudge creates a judge with the default weights adjusted by opts.
func NewWeightedJudge(opts ...Option) *WeightedJudge {
	j := &WeightedJudge{params: DefaultParams()}
	for _, opt := range opts {
		opt(j)
	}

	j.cumulative = make([]float64, 1, maxTable+1)
	sum := 0.0
	for l := 0; l < maxTable; l++ {
		step := j.params.LengthBonus * j.weight(l)
		if step <= 0 || sum+step == sum {
			break
		}
		sum += step
		j.cumulative = append(j.cumulative, sum)
	}
	return j
}

// Params returns the weights in use.
func (j *WeightedJudge) Params() Params { return j.params }

func (j *WeightedJudge) weight(i int) float64 {
	x := float64(i)
	return math.Exp(-x * x / (2 * j.params.Sigma * j.params.Sigma))
}

// Judge implements Judge.
func (j *WeightedJudge) Judge(found, wanted []model.Event, lookback int, mult float64) float64 {
	n := min(len(found), len(wanted))
	if lookback < 0 {
		lookback = 0
	}

	score := 0.0
	for k := lookback; k < n; k++ {
		score += j.weight(k-lookback) * j.pair(&found[k], &wanted[k], mult)
	}
	return score
}

func (j *WeightedJudge) pair(f, w *model.Event, mult float64) float64 {
	p := &j.params
	s := p.LengthBonus

	s -= p.SpacingWeight * math.Sqrt(math.Abs(f.Spacing*mult-w.Spacing))

	angleWeight := p.AngleWeight
	if w.Spacing < p.DenseSpacing && w.BeatGap <= p.DenseGap {
		angleWeight = p.DenseAngleWeight
	}
	s -= angleWeight * math.Abs(model.NormalizeAngle(f.Angle-w.Angle))

	if f.GroupFlag != w.GroupFlag {
		s -= p.GroupWeight
	}

	if f.HasCurve && w.HasCurve {
		fl := f.CurveLength * mult
		s -= p.CurveLengthWeight * math.Sqrt(math.Abs(fl-w.CurveLength))
		if fl > 0 && w.CurveLength > 0 && f.CurveSegments > 0 && w.CurveSegments > 0 {
			fd := math.Log2(float64(f.CurveSegments) / fl)
			wd := math.Log2(float64(w.CurveSegments) / w.CurveLength)
			s -= p.CurveDensityWeight * math.Abs(fd-wd)
		}
	}
	return s
}

// MinLengthForScore implements Judge.
func (j *WeightedJudge) MinLengthForScore(score float64) int {
	if score <= 0 {
		return 0
	}
	l := sort.SearchFloat64s(j.cumulative, score)
	if l >= len(j.cumulative) {
		return Unreachable
	}
	return l
}

// PogScore implements Judge.
func (j *WeightedJudge) PogScore() float64 { return j.params.PogBonus }
