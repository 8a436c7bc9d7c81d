package advisor

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidGridSize indicates a non-positive or even grid side length.
	ErrInvalidGridSize = errors.New("grid size must be a positive odd number")
	// ErrInvalidResolution indicates a non-positive degrees-per-cell value.
	ErrInvalidResolution = errors.New("degrees per cell must be positive")
	// ErrInvalidAlpha indicates an EMA smoothing factor outside (0, 1].
	ErrInvalidAlpha = errors.New("ema alpha must be in (0, 1]")
	// ErrInvalidConfidenceGain indicates a non-positive per-sample gain.
	ErrInvalidConfidenceGain = errors.New("confidence gain per sample must be positive")
	// ErrInvalidDecay indicates a negative per-tick decay.
	ErrInvalidDecay = errors.New("confidence decay per tick must be non-negative")
)

// Config tunes the estimator. It is validated once at construction; an
// estimator never runs with an invalid configuration.
type Config struct {
	// GridSize is the side length N of the square grid. Must be odd so a
	// true centre cell exists.
	GridSize int `json:"GridSize" yaml:"grid_size"`

	// DegreesPerCell is the angular resolution of one cell.
	DegreesPerCell float64 `json:"DegreesPerCell" yaml:"degrees_per_cell"`

	// EMAAlpha weights a new reading against the running estimate.
	// 1 means "latest reading wins".
	EMAAlpha float64 `json:"EMAAlpha" yaml:"ema_alpha"`

	ConfidenceGainPerSample float64 `json:"ConfidenceGainPerSample" yaml:"confidence_gain_per_sample"`
	ConfidenceDecayPerTick  float64 `json:"ConfidenceDecayPerTick" yaml:"confidence_decay_per_tick"`
}

// DefaultConfig returns a 21×21 grid at half a degree per cell, covering
// ±5° around the reference.
func DefaultConfig() Config {
	return Config{
		GridSize:                21,
		DegreesPerCell:          0.5,
		EMAAlpha:                0.5,
		ConfidenceGainPerSample: 1,
		ConfidenceDecayPerTick:  0.02,
	}
}

// Validate reports every violated constraint, joined.
func (c Config) Validate() error {
	var errs []error
	if c.GridSize <= 0 || c.GridSize%2 == 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidGridSize, c.GridSize))
	}
	if !(c.DegreesPerCell > 0) || math.IsInf(c.DegreesPerCell, 0) {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidResolution, c.DegreesPerCell))
	}
	if !(c.EMAAlpha > 0 && c.EMAAlpha <= 1) {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidAlpha, c.EMAAlpha))
	}
	if !(c.ConfidenceGainPerSample > 0) || math.IsInf(c.ConfidenceGainPerSample, 0) {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidConfidenceGain, c.ConfidenceGainPerSample))
	}
	if !(c.ConfidenceDecayPerTick >= 0) || math.IsInf(c.ConfidenceDecayPerTick, 0) {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidDecay, c.ConfidenceDecayPerTick))
	}
	return errors.Join(errs...)
}
