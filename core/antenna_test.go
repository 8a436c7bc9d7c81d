package core

import (
	"math"
	"testing"
)

func TestPeakGainTypicalDish(t *testing.T) {
	cfg := DefaultLinkConfig()

	// 24 GHz, 0.6 m, 60% efficiency: 10·log10(0.6·(π·0.6/0.01249)²) ≈ 41.36 dBi.
	got := PeakGain(cfg)
	if got < 41.0 || got > 41.7 {
		t.Fatalf("PeakGain = %.3f dBi, want ≈41.36", got)
	}
}

func TestDishGainBoresightIsPeak(t *testing.T) {
	cfg := DefaultLinkConfig()
	if got, want := DishGain(cfg, 0), PeakGain(cfg); got != want {
		t.Fatalf("DishGain(0) = %v, want exactly %v", got, want)
	}
}

func TestDishGainSymmetricAndDecreasingInMainLobe(t *testing.T) {
	cfg := DefaultLinkConfig()

	prev := DishGain(cfg, 0)
	for _, deg := range []float64{0.1, 0.2, 0.4, 0.6, 0.8, 1.0} {
		g := DishGain(cfg, deg)
		if g >= prev {
			t.Fatalf("DishGain(%.1f) = %.3f, expected below %.3f", deg, g, prev)
		}
		if neg := DishGain(cfg, -deg); neg != g {
			t.Fatalf("DishGain(-%.1f) = %.3f, want %.3f", deg, neg, g)
		}
		prev = g
	}
}

func TestDishGainNeverBelowSidelobeFloor(t *testing.T) {
	cfg := DefaultLinkConfig()
	floor := PeakGain(cfg) + SidelobeFloorDB

	for deg := 0.0; deg < 120; deg += 0.01 {
		g := DishGain(cfg, deg)
		if math.IsNaN(g) || math.IsInf(g, 0) {
			t.Fatalf("DishGain(%.2f) = %v, want finite", deg, g)
		}
		if g < floor-1e-9 {
			t.Fatalf("DishGain(%.2f) = %.3f below floor %.3f", deg, g, floor)
		}
	}

	// First null of the sinc envelope sits at u = π.
	ratio := math.Pi * cfg.DishDiameterM / Wavelength(cfg.FrequencyGHz)
	nullDeg := math.Asin(math.Pi/ratio) * 180 / math.Pi
	if g := DishGain(cfg, nullDeg); math.Abs(g-floor) > 1e-6 {
		t.Fatalf("DishGain at first null = %.3f, want floor %.3f", g, floor)
	}
	if g := DishGain(cfg, 95); g != floor {
		t.Fatalf("DishGain(95) = %.3f, want floor %.3f", g, floor)
	}
}

func TestHalfPowerBeamwidthShrinksWithAperture(t *testing.T) {
	small := DefaultLinkConfig()
	large := small
	large.DishDiameterM = 1.2

	if HalfPowerBeamwidthDeg(large) >= HalfPowerBeamwidthDeg(small) {
		t.Fatalf("larger dish should have a narrower beam: %.3f vs %.3f",
			HalfPowerBeamwidthDeg(large), HalfPowerBeamwidthDeg(small))
	}
}

func TestPointingErrorDeg(t *testing.T) {
	if got := PointingErrorDeg(0, 0); got != 0 {
		t.Fatalf("PointingErrorDeg(0,0) = %v, want 0", got)
	}
	if got := PointingErrorDeg(3, 4); math.Abs(got-5) > 0.01 {
		t.Fatalf("PointingErrorDeg(3,4) = %.4f, want ≈5", got)
	}
	if got := PointingErrorDeg(-2, 0); math.Abs(got-2) > 1e-9 {
		t.Fatalf("PointingErrorDeg(-2,0) = %.6f, want 2", got)
	}
}

func TestNormalizedClampsInputs(t *testing.T) {
	cfg := LinkConfig{
		FrequencyGHz:       -1,
		DishDiameterM:      0,
		ApertureEfficiency: 1.5,
		BandwidthMHz:       math.NaN(),
		RainRateMmPerHour:  -3,
	}
	got := cfg.Normalized()

	if got.FrequencyGHz != MinFrequencyGHz {
		t.Errorf("FrequencyGHz = %v, want %v", got.FrequencyGHz, MinFrequencyGHz)
	}
	if got.DishDiameterM != MinDishDiameterM {
		t.Errorf("DishDiameterM = %v, want %v", got.DishDiameterM, MinDishDiameterM)
	}
	if got.ApertureEfficiency != 1 {
		t.Errorf("ApertureEfficiency = %v, want 1", got.ApertureEfficiency)
	}
	if got.BandwidthMHz != MinBandwidthMHz {
		t.Errorf("BandwidthMHz = %v, want %v", got.BandwidthMHz, MinBandwidthMHz)
	}
	if got.RainRateMmPerHour != 0 {
		t.Errorf("RainRateMmPerHour = %v, want 0", got.RainRateMmPerHour)
	}

	zeroEff := LinkConfig{ApertureEfficiency: 0}.Normalized()
	if zeroEff.ApertureEfficiency != MinEfficiency {
		t.Errorf("zero efficiency normalised to %v, want %v", zeroEff.ApertureEfficiency, MinEfficiency)
	}
}
