// Package config defines process configuration and its loading.
//
// Defaults come from New, an optional YAML file named by MAPPERATOR_CONFIG
// overrides them and MAPPERATOR_* environment variables override both.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr serves the HTTP API when set, e.g. ":8080". Otherwise the process
	// generates once from PatternPath and exits.
	Addr string `koanf:"addr"`

	// MetricsAddr serves /metrics when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// Input and output files. OutputPath "-" or empty writes to stdout.
	CorpusPath  string `koanf:"corpus_path"`
	PatternPath string `koanf:"pattern_path"`
	OutputPath  string `koanf:"output_path"`

	// WorkerCount sets the number of scoring workers; 1 scores inline.
	WorkerCount int `koanf:"worker_count"`

	// ScoreBatchSize is how many candidates are scored per worker batch.
	ScoreBatchSize int `koanf:"score_batch_size"`

	// Matcher settings.
	MaxLength      int     `koanf:"max_length"`
	MaxLookback    int     `koanf:"max_lookback"`
	Tolerances     []int   `koanf:"tolerances"`
	LeniencyFactor float64 `koanf:"leniency_factor"`
	LeniencyAbs    float64 `koanf:"leniency_abs"`

	// TopK bounds the best-score queue.
	TopK int `koanf:"top_k"`

	// Judge weights.
	Sigma              float64 `koanf:"sigma"`
	LengthBonus        float64 `koanf:"length_bonus"`
	SpacingWeight      float64 `koanf:"spacing_weight"`
	AngleWeight        float64 `koanf:"angle_weight"`
	DenseAngleWeight   float64 `koanf:"dense_angle_weight"`
	DenseSpacing       float64 `koanf:"dense_spacing"`
	DenseGap           float64 `koanf:"dense_gap"`
	GroupWeight        float64 `koanf:"group_weight"`
	CurveLengthWeight  float64 `koanf:"curve_length_weight"`
	CurveDensityWeight float64 `koanf:"curve_density_weight"`
	PogBonus           float64 `koanf:"pog_bonus"`

	// Playfield bounds in pixels.
	PlayfieldWidth  float64 `koanf:"playfield_width"`
	PlayfieldHeight float64 `koanf:"playfield_height"`
	PlayfieldInset  float64 `koanf:"playfield_inset"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		OutputPath:         "-",
		WorkerCount:        runtime.NumCPU(),
		ScoreBatchSize:     64,
		MaxLength:          32,
		MaxLookback:        8,
		Tolerances:         []int{0, 3, 9},
		LeniencyFactor:     0.25,
		LeniencyAbs:        1,
		TopK:               1,
		Sigma:              4,
		LengthBonus:        50,
		SpacingWeight:      2,
		AngleWeight:        1,
		DenseAngleWeight:   20,
		DenseSpacing:       30,
		DenseGap:           0.5,
		GroupWeight:        5,
		CurveLengthWeight:  2,
		CurveDensityWeight: 20,
		PogBonus:           40,
		PlayfieldWidth:     512,
		PlayfieldHeight:    384,
		PlayfieldInset:     5,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	case c.ScoreBatchSize < 1:
		return fmt.Errorf("%w: score_batch_size must be at least 1", ErrInvalidConfig)
	case c.MaxLength < 1:
		return fmt.Errorf("%w: max_length must be at least 1", ErrInvalidConfig)
	case c.MaxLookback < 0:
		return fmt.Errorf("%w: max_lookback must not be negative", ErrInvalidConfig)
	case len(c.Tolerances) == 0:
		return fmt.Errorf("%w: tolerances must not be empty", ErrInvalidConfig)
	case c.LeniencyFactor < 0 || c.LeniencyAbs < 0:
		return fmt.Errorf("%w: leniency must not be negative", ErrInvalidConfig)
	case c.TopK < 1:
		return fmt.Errorf("%w: top_k must be at least 1", ErrInvalidConfig)
	case c.Sigma <= 0:
		return fmt.Errorf("%w: sigma must be positive", ErrInvalidConfig)
	case c.PlayfieldWidth <= 2*c.PlayfieldInset || c.PlayfieldHeight <= 2*c.PlayfieldInset:
		return fmt.Errorf("%w: playfield is smaller than its inset", ErrInvalidConfig)
	}
	for _, w := range c.Tolerances {
		if w < 0 {
			return fmt.Errorf("%w: tolerance %d is negative", ErrInvalidConfig, w)
		}
	}
	return nil
}
