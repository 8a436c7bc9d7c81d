package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/dish-aligner/advisor"
	"github.com/signalsfoundry/dish-aligner/core"
	"github.com/signalsfoundry/dish-aligner/internal/session"
	"github.com/signalsfoundry/dish-aligner/timectrl"
)

const (
	refAz = 180.0
	refEl = 10.0
)

// wideBeamTruth puts the boresight two cells right and one cell down of the
// reference, well inside a main lobe wider than the grid.
func wideBeamTruth() TruthField {
	cfg := core.DefaultLinkConfig()
	cfg.FrequencyGHz = 10
	cfg.DishDiameterM = 0.3
	return TruthField{
		Link:           core.NewLinkModel(cfg),
		Geometry:       core.LinkGeometry{SiteB: core.Vec3{Y: 1000}},
		BoresightAzDeg: refAz + 1.0,
		BoresightElDeg: refEl - 0.5,
	}
}

func simConfig() advisor.Config {
	return advisor.Config{
		GridSize:                11,
		DegreesPerCell:          0.5,
		EMAAlpha:                1,
		ConfidenceGainPerSample: 1,
		ConfidenceDecayPerTick:  0,
	}
}

func newController(t *testing.T, est session.Estimator, manual bool) *Controller {
	t.Helper()
	s := session.New(context.Background(), est, session.WithKernel(advisor.Kernel{Radius: 0, Sigma: 1}))
	t.Cleanup(func() { s.Close() })

	clock := timectrl.NewTimeController(time.Unix(0, 0), 100*time.Millisecond, timectrl.Accelerated)
	clock.AddListener(s.OnTick(context.Background()))

	return &Controller{
		Session:     s,
		Meter:       NewMeter(wideBeamTruth(), 0, 1),
		Clock:       clock,
		Config:      simConfig(),
		ReferenceAz: refAz,
		ReferenceEl: refEl,
		Manual:      manual,
		Patience:    3,
	}
}

func TestTruthPeaksAtBoresight(t *testing.T) {
	truth := wideBeamTruth()
	peak := truth.PowerAt(truth.BoresightAzDeg, truth.BoresightElDeg)
	for _, off := range [][2]float64{{0.5, 0}, {0, -0.5}, {1, 1}, {-2, 0.5}} {
		got := truth.PowerAt(truth.BoresightAzDeg+off[0], truth.BoresightElDeg+off[1])
		if got >= peak {
			t.Fatalf("PowerAt(offset %v) = %v, want below boresight %v", off, got, peak)
		}
	}
}

func TestTruthWrapsAzimuth(t *testing.T) {
	truth := wideBeamTruth()
	truth.BoresightAzDeg = 359.5
	a := truth.PowerAt(0.5, truth.BoresightElDeg)
	b := truth.PowerAt(358.5, truth.BoresightElDeg)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("PowerAt across north = %v and %v, want equal", a, b)
	}
}

func TestMeterNoise(t *testing.T) {
	truth := wideBeamTruth()
	quiet := NewMeter(truth, 0, 1)
	if got, want := quiet.Measure(refAz, refEl), truth.PowerAt(refAz, refEl); got != want {
		t.Fatalf("noise-free Measure = %v, want %v", got, want)
	}

	a := NewMeter(truth, 1, 42)
	b := NewMeter(truth, 1, 42)
	differs := false
	for i := 0; i < 5; i++ {
		x, y := a.Measure(refAz, refEl), b.Measure(refAz, refEl)
		if x != y {
			t.Fatalf("reading %d = %v and %v for the same seed", i, x, y)
		}
		if x != truth.PowerAt(refAz, refEl) {
			differs = true
		}
	}
	if !differs {
		t.Fatal("noisy meter never deviated from truth")
	}
}

func TestSpiralVisitsEveryOffsetOnce(t *testing.T) {
	offsets := spiral(2)
	if len(offsets) != 25 {
		t.Fatalf("len(spiral(2)) = %d, want 25", len(offsets))
	}
	if offsets[0] != (advisor.Cell{}) {
		t.Fatalf("spiral starts at %v, want centre", offsets[0])
	}
	seen := map[advisor.Cell]bool{}
	for _, c := range offsets {
		if seen[c] {
			t.Fatalf("offset %v visited twice", c)
		}
		if absInt(c.Row) > 2 || absInt(c.Col) > 2 {
			t.Fatalf("offset %v outside radius 2", c)
		}
		seen[c] = true
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestManualClimbConverges(t *testing.T) {
	est, err := advisor.NewManualEstimator(simConfig())
	if err != nil {
		t.Fatalf("NewManualEstimator: %v", err)
	}
	c := newController(t, est, true)

	var steps []StepResult
	c.OnStep = func(_ context.Context, step StepResult, _ session.View) {
		steps = append(steps, step)
	}

	res, err := c.Run(context.Background(), 200)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Reason != StopConverged {
		t.Fatalf("Reason = %q, want %q", res.Reason, StopConverged)
	}
	if want := (advisor.Cell{Row: 6, Col: 7}); res.PeakCell != want || res.View.Origin != want {
		t.Fatalf("peak %v origin %v, want both %v", res.PeakCell, res.View.Origin, want)
	}
	if res.PointingErrorDeg > 1e-3 {
		t.Fatalf("PointingErrorDeg = %v, want ~0", res.PointingErrorDeg)
	}
	if len(steps) != res.Steps {
		t.Fatalf("OnStep called %d times, want %d", len(steps), res.Steps)
	}
	if c.Clock.Ticks() != res.Steps+1 {
		t.Fatalf("clock ticks = %d, want %d", c.Clock.Ticks(), res.Steps+1)
	}
}

func TestManualClimbStopsOnBudget(t *testing.T) {
	est, err := advisor.NewManualEstimator(simConfig())
	if err != nil {
		t.Fatalf("NewManualEstimator: %v", err)
	}
	c := newController(t, est, true)

	res, err := c.Run(context.Background(), 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Reason != StopSteps || res.Steps != 3 {
		t.Fatalf("Run(3) = %q after %d steps, want %q after 3", res.Reason, res.Steps, StopSteps)
	}
}

func TestAbsoluteSweepFindsPeak(t *testing.T) {
	est, err := advisor.NewAbsoluteEstimator(refAz, refEl, simConfig())
	if err != nil {
		t.Fatalf("NewAbsoluteEstimator: %v", err)
	}
	c := newController(t, est, false)

	res, err := c.Run(context.Background(), 500)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Reason != StopSwept || res.Steps != 121 {
		t.Fatalf("Run = %q after %d steps, want %q after 121", res.Reason, res.Steps, StopSwept)
	}
	if want := (advisor.Cell{Row: 6, Col: 7}); res.PeakCell != want {
		t.Fatalf("PeakCell = %v, want %v", res.PeakCell, want)
	}
	if math.Abs(res.PeakAzimuthDeg-181) > 1e-9 || math.Abs(res.PeakElevationDeg-9.5) > 1e-9 {
		t.Fatalf("peak direction = (%v, %v), want (181, 9.5)", res.PeakAzimuthDeg, res.PeakElevationDeg)
	}
	if res.Evaluation.Cells != 121 {
		t.Fatalf("evaluated cells = %d, want 121", res.Evaluation.Cells)
	}
	if res.Evaluation.RMSEdB > 1e-9 || res.Evaluation.MaxAbsErrorDB > 1e-9 {
		t.Fatalf("evaluation = %+v, want exact reconstruction", res.Evaluation)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	est, err := advisor.NewAbsoluteEstimator(refAz, refEl, simConfig())
	if err != nil {
		t.Fatalf("NewAbsoluteEstimator: %v", err)
	}
	c := newController(t, est, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := c.Run(ctx, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Reason != StopCancelled {
		t.Fatalf("Reason = %q, want %q", res.Reason, StopCancelled)
	}
}

func TestEvaluateEmptyField(t *testing.T) {
	est, err := advisor.NewAbsoluteEstimator(refAz, refEl, simConfig())
	if err != nil {
		t.Fatalf("NewAbsoluteEstimator: %v", err)
	}
	loc := advisor.NewAngleLocator(refAz, refEl, 0.5, 11)
	got := Evaluate(est.Reconstruct(advisor.DefaultKernel()), loc, wideBeamTruth())
	if got != (Evaluation{}) {
		t.Fatalf("Evaluate(empty) = %+v, want zero", got)
	}
}
