// Package scoring rates candidate matches against the wanted pattern window.
package scoring

import (
	"math"

	"github.com/okian/mapperator/internal/domain/model"
)

// Unreachable is returned by MinLengthForScore when no match length can
// reach the requested score.
const Unreachable = math.MaxInt32

// Judge scores a candidate against the wanted events. found and wanted are
// aligned: both start lookback events before the position being generated
// and only the events after the lookback contribute.
type Judge interface {
	Judge(found, wanted []model.Event, lookback int, mult float64) float64

	// MinLengthForScore returns the smallest continuation length whose best
	// possible score reaches score.
	MinLengthForScore(score float64) int

	// PogScore is the bonus for continuing the previously emitted match.
	PogScore() float64
}

// Default weights.
const (
	defaultSigma              = 4
	defaultLengthBonus        = 50
	defaultSpacingWeight      = 2
	defaultAngleWeight        = 1
	defaultDenseAngleWeight   = 20
	defaultDenseSpacing       = 30
	defaultDenseGap           = 0.5
	defaultGroupWeight        = 5
	defaultCurveLengthWeight  = 2
	defaultCurveDensityWeight = 20
	defaultPogBonus           = 40
)

// Params holds the WeightedJudge weights.
type Params struct {
	Sigma       float64 // width of the positional Gaussian
	LengthBonus float64 // reward per matched event before penalties

	SpacingWeight float64
	AngleWeight   float64

	// Wanted events closer than DenseSpacing and no more than DenseGap beats
	// apart use DenseAngleWeight instead of AngleWeight.
	DenseAngleWeight float64
	DenseSpacing     float64
	DenseGap         float64

	GroupWeight        float64
	CurveLengthWeight  float64
	CurveDensityWeight float64
	PogBonus           float64
}

// DefaultParams returns the default weights.
func DefaultParams() Params {
	return Params{
		Sigma:              defaultSigma,
		LengthBonus:        defaultLengthBonus,
		SpacingWeight:      defaultSpacingWeight,
		AngleWeight:        defaultAngleWeight,
		DenseAngleWeight:   defaultDenseAngleWeight,
		DenseSpacing:       defaultDenseSpacing,
		DenseGap:           defaultDenseGap,
		GroupWeight:        defaultGroupWeight,
		CurveLengthWeight:  defaultCurveLengthWeight,
		CurveDensityWeight: defaultCurveDensityWeight,
		PogBonus:           defaultPogBonus,
	}
}
