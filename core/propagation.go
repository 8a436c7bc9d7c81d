package core

import "math"

// MinDistanceM floors every path length handed to the loss formulas so
// log10 never sees zero.
const MinDistanceM = 0.1

// ThermalNoiseDBmPerHz is kTB at 290 K for a 1 Hz bandwidth.
const ThermalNoiseDBmPerHz = -174.0

// RainSlantFactor pads the horizontal rain loss to cover slant paths and
// a non-uniform rain cell.
const RainSlantFactor = 1.2

// FreeSpacePathLoss returns the free-space loss in dB:
// 20·log10(d) + 20·log10(f) − 147.55 with d in metres and f in Hz.
func FreeSpacePathLoss(distanceM, freqGHz float64) float64 {
	d := floorFinite(distanceM, MinDistanceM)
	f := floorFinite(freqGHz, MinFrequencyGHz) * 1e9
	return 20*math.Log10(d) + 20*math.Log10(f) - 147.55
}

// RainAttenuation returns the rain loss in dB over distanceM.
//
// Specific attenuation follows the power law γ = k·R^α with k and α scaled
// from frequency (simplified fit of the ITU-R P.838 tables, not the tables
// themselves), then multiplied by the path length in km and
// RainSlantFactor.
func RainAttenuation(distanceM, rainRateMmPerHour, freqGHz float64) float64 {
	if math.IsNaN(rainRateMmPerHour) || rainRateMmPerHour <= 0 {
		return 0
	}
	f := floorFinite(freqGHz, MinFrequencyGHz)
	k := 4.21e-5 * math.Pow(f, 2.42)
	alpha := 1.41 * math.Pow(f, -0.0779)
	if f > 54 {
		k = 4.09e-2 * math.Pow(f, 0.699)
		alpha = 2.63 * math.Pow(f, -0.272)
	}
	gamma := k * math.Pow(rainRateMmPerHour, alpha)
	km := floorFinite(distanceM, MinDistanceM) / 1000
	return gamma * km * RainSlantFactor
}

// NoiseFloor returns the receiver noise floor in dBm for the given channel
// bandwidth and noise figure.
func NoiseFloor(bandwidthMHz, noiseFigureDB float64) float64 {
	bw := floorFinite(bandwidthMHz, MinBandwidthMHz) * 1e6
	if math.IsNaN(noiseFigureDB) || math.IsInf(noiseFigureDB, 0) {
		noiseFigureDB = 0
	}
	return ThermalNoiseDBmPerHz + 10*math.Log10(bw) + noiseFigureDB
}

// SNR returns receivedPowerDBm minus the noise floor for the channel.
func SNR(receivedPowerDBm, bandwidthMHz, noiseFigureDB float64) float64 {
	return receivedPowerDBm - NoiseFloor(bandwidthMHz, noiseFigureDB)
}
