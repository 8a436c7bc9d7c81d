package advisor

import "testing"

func TestRecommendMoveEmptyGrid(t *testing.T) {
	est := newAbsolute(t)
	rec := est.RecommendMove()
	if !rec.None() || rec.Source != SourceNone {
		t.Fatalf("RecommendMove() = %+v, want none", rec)
	}
}

func TestRecommendMoveSingleKnownNeighbour(t *testing.T) {
	est := newAbsolute(t)
	est.AddAbsoluteSample(1, 0, -60)

	rec := est.RecommendMove()
	if rec.Direction != DirectionRight || rec.Source != SourceGradient {
		t.Fatalf("RecommendMove() = %v/%v, want right/gradient", rec.Direction, rec.Source)
	}
	if rec.Target != (Cell{Row: 5, Col: 6}) {
		t.Fatalf("Target = %v, want (5,6)", rec.Target)
	}
}

func TestRecommendMoveFollowsGradientSign(t *testing.T) {
	tests := []struct {
		name    string
		samples [][3]float64
		want    Direction
	}{
		{"left stronger", [][3]float64{{-1, 0, -40}, {1, 0, -50}}, DirectionLeft},
		{"up stronger", [][3]float64{{0, 1, -40}, {0, -1, -50}}, DirectionUp},
		{"down stronger", [][3]float64{{0, 1, -50}, {0, -1, -44}}, DirectionDown},
		{
			"larger axis wins",
			[][3]float64{{-1, 0, -50}, {1, 0, -48}, {0, 1, -50}, {0, -1, -45}},
			DirectionDown,
		},
		{
			"axis tie goes horizontal",
			[][3]float64{{-1, 0, -50}, {1, 0, -49}, {0, 1, -50}, {0, -1, -49}},
			DirectionRight,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := newAbsolute(t)
			for _, s := range tt.samples {
				est.AddAbsoluteSample(s[0], s[1], s[2])
			}
			rec := est.RecommendMove()
			if rec.Direction != tt.want || rec.Source != SourceGradient {
				t.Fatalf("RecommendMove() = %v/%v, want %v/gradient", rec.Direction, rec.Source, tt.want)
			}
		})
	}
}

func TestRecommendMoveDeadZoneFallsBackToPeak(t *testing.T) {
	est := newAbsolute(t)
	est.AddAbsoluteSample(1, 0, -50)
	est.AddAbsoluteSample(-1, 0, -50-GradientDeadZoneDB)

	rec := est.RecommendMove()
	if rec.Source != SourcePeak || rec.Direction != DirectionRight {
		t.Fatalf("RecommendMove() = %v/%v, want right/peak", rec.Direction, rec.Source)
	}
	if rec.Dx != GradientDeadZoneDB {
		t.Fatalf("Dx = %v, want %v", rec.Dx, GradientDeadZoneDB)
	}

	est.AddAbsoluteSample(-1, 0, -51.2)
	// The left EMA moves to -50.85, past the dead zone.
	if rec := est.RecommendMove(); rec.Source != SourceGradient {
		t.Fatalf("source = %v, want gradient", rec.Source)
	}
}

func TestRecommendMoveTowardDistantPeak(t *testing.T) {
	est := newAbsolute(t)
	for _, s := range [][2]float64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		est.AddAbsoluteSample(s[0], s[1], -50)
	}
	est.AddAbsoluteSample(0, 3, -30)

	rec := est.RecommendMove()
	if rec.Source != SourcePeak || rec.Direction != DirectionUp {
		t.Fatalf("RecommendMove() = %v/%v, want up/peak", rec.Direction, rec.Source)
	}
	if rec.Target != (Cell{Row: 2, Col: 5}) {
		t.Fatalf("Target = %v, want (2,5)", rec.Target)
	}
}

func TestRecommendMoveNoneWhenPeakIsOrigin(t *testing.T) {
	est := newAbsolute(t)
	est.RecordInPlace(-30)
	for _, s := range [][2]float64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		est.AddAbsoluteSample(s[0], s[1], -50)
	}

	if rec := est.RecommendMove(); !rec.None() {
		t.Fatalf("RecommendMove() = %+v, want none", rec)
	}
}

func TestRecommendMoveFromManualCursor(t *testing.T) {
	est, err := NewManualEstimator(testConfig())
	if err != nil {
		t.Fatalf("NewManualEstimator: %v", err)
	}
	est.AddRelativeSample(DirectionNone, -60)
	est.AddRelativeSample(DirectionUp, -55)
	est.AddRelativeSample(DirectionDown, -60)

	// Cursor is back at the centre with the upper neighbour stronger.
	rec := est.RecommendMove()
	if rec.Direction != DirectionUp || rec.Source != SourceGradient {
		t.Fatalf("RecommendMove() = %v/%v, want up/gradient", rec.Direction, rec.Source)
	}
}
