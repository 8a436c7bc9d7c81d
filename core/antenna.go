package core

import "math"

// SpeedOfLight in metres per second.
const SpeedOfLight = 299792458.0

// SidelobeFloorDB bounds how far below peak the off-axis envelope may fall.
// Without it the sinc nulls would drive gain toward -Inf.
const SidelobeFloorDB = -60.0

var sidelobeFloorLinear = math.Pow(10, SidelobeFloorDB/10)

// Wavelength returns the free-space wavelength in metres for freqGHz.
func Wavelength(freqGHz float64) float64 {
	return SpeedOfLight / (floorFinite(freqGHz, MinFrequencyGHz) * 1e9)
}

// PeakGain returns the boresight gain of the reflector in dBi:
// 10·log10(η·(πD/λ)²).
func PeakGain(cfg LinkConfig) float64 {
	cfg = cfg.Normalized()
	ratio := math.Pi * cfg.DishDiameterM / Wavelength(cfg.FrequencyGHz)
	return 10 * math.Log10(cfg.ApertureEfficiency*ratio*ratio)
}

// HalfPowerBeamwidthDeg approximates the -3 dB beamwidth of a parabolic
// reflector as 70·λ/D degrees.
func HalfPowerBeamwidthDeg(cfg LinkConfig) float64 {
	cfg = cfg.Normalized()
	return 70 * Wavelength(cfg.FrequencyGHz) / cfg.DishDiameterM
}

// DishGain returns the gain in dBi at offAxisDeg away from boresight.
//
// The pattern is the peak gain shaped by a normalised sinc² envelope of
// u = (πD/λ)·sin(θ), clamped to SidelobeFloorDB below peak. Angles are
// taken by magnitude; anything at or beyond 90° sits on the floor.
func DishGain(cfg LinkConfig, offAxisDeg float64) float64 {
	cfg = cfg.Normalized()
	peak := PeakGain(cfg)

	theta := math.Abs(offAxisDeg)
	if math.IsNaN(theta) || theta >= 90 {
		return peak + SidelobeFloorDB
	}
	if theta == 0 {
		return peak
	}

	u := math.Pi * cfg.DishDiameterM / Wavelength(cfg.FrequencyGHz) * math.Sin(theta*math.Pi/180)
	envelope := sincSquared(u)
	if envelope < sidelobeFloorLinear {
		envelope = sidelobeFloorLinear
	}
	return peak + 10*math.Log10(envelope)
}

func sincSquared(u float64) float64 {
	if u == 0 {
		return 1
	}
	s := math.Sin(u) / u
	return s * s
}

// PointingErrorDeg converts a two-axis pointing offset into the single
// great-circle angle between the intended and actual boresight:
// acos(cos(az)·cos(el)).
func PointingErrorDeg(azOffsetDeg, elOffsetDeg float64) float64 {
	az := azOffsetDeg * math.Pi / 180
	el := elOffsetDeg * math.Pi / 180
	c := math.Cos(az) * math.Cos(el)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c) * 180 / math.Pi
}
