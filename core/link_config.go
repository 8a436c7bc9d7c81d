package core

import "math"

// Floors applied by Normalized. The physics model never errors; it clamps
// out-of-range inputs to these values instead.
const (
	MinFrequencyGHz   = 0.1
	MinDishDiameterM  = 0.05
	MinEfficiency     = 0.01
	MinBandwidthMHz   = 0.001
	DefaultEfficiency = 0.6
)

// LinkConfig describes one terminal of a point-to-point microwave hop: the
// radio and the reflector feeding it. Values are supplied by the caller and
// never mutated by the model.
type LinkConfig struct {
	// FrequencyGHz is the carrier frequency.
	FrequencyGHz float64 `json:"FrequencyGHz" yaml:"frequency_ghz"`

	// DishDiameterM is the reflector diameter in metres.
	DishDiameterM float64 `json:"DishDiameterM" yaml:"dish_diameter_m"`

	// ApertureEfficiency is the fraction of the physical aperture that
	// contributes to gain, in (0, 1].
	ApertureEfficiency float64 `json:"ApertureEfficiency" yaml:"aperture_efficiency"`

	TxPowerDBm   float64 `json:"TxPowerDBm" yaml:"tx_power_dbm"`
	SystemLossDB float64 `json:"SystemLossDB" yaml:"system_loss_db"`
	BandwidthMHz float64 `json:"BandwidthMHz" yaml:"bandwidth_mhz"`

	// NoiseFigureDB is the receiver noise figure added on top of the
	// thermal floor.
	NoiseFigureDB float64 `json:"NoiseFigureDB" yaml:"noise_figure_db"`

	// RainRateMmPerHour is the default rain rate used by the convenience
	// methods on LinkModel. 0 = clear sky.
	RainRateMmPerHour float64 `json:"RainRateMmPerHour,omitempty" yaml:"rain_rate_mm_per_hour"`
}

// DefaultLinkConfig returns a 24 GHz, 60 cm dish terminal typical of
// short unlicensed backhaul hops.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		FrequencyGHz:       24.0,
		DishDiameterM:      0.6,
		ApertureEfficiency: DefaultEfficiency,
		TxPowerDBm:         20,
		SystemLossDB:       3,
		BandwidthMHz:       40,
		NoiseFigureDB:      6,
	}
}

// Normalized returns a copy of c with every field clamped into the range
// the formulas in this package are defined for.
func (c LinkConfig) Normalized() LinkConfig {
	out := c
	out.FrequencyGHz = floorFinite(c.FrequencyGHz, MinFrequencyGHz)
	out.DishDiameterM = floorFinite(c.DishDiameterM, MinDishDiameterM)
	out.BandwidthMHz = floorFinite(c.BandwidthMHz, MinBandwidthMHz)

	switch {
	case math.IsNaN(c.ApertureEfficiency) || c.ApertureEfficiency <= 0:
		out.ApertureEfficiency = MinEfficiency
	case c.ApertureEfficiency > 1:
		out.ApertureEfficiency = 1
	}
	if math.IsNaN(c.RainRateMmPerHour) || c.RainRateMmPerHour < 0 {
		out.RainRateMmPerHour = 0
	}
	if math.IsNaN(c.TxPowerDBm) || math.IsInf(c.TxPowerDBm, 0) {
		out.TxPowerDBm = 0
	}
	if math.IsNaN(c.SystemLossDB) || math.IsInf(c.SystemLossDB, 0) {
		out.SystemLossDB = 0
	}
	if math.IsNaN(c.NoiseFigureDB) || math.IsInf(c.NoiseFigureDB, 0) {
		out.NoiseFigureDB = 0
	}
	return out
}

// floorFinite returns v, or min when v is below min or not a finite number.
func floorFinite(v, min float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < min {
		return min
	}
	return v
}
