package sim

import (
	"context"
	"errors"
	"time"

	"github.com/signalsfoundry/dish-aligner/advisor"
	"github.com/signalsfoundry/dish-aligner/core"
	"github.com/signalsfoundry/dish-aligner/internal/logging"
	"github.com/signalsfoundry/dish-aligner/internal/session"
	"github.com/signalsfoundry/dish-aligner/timectrl"
)

// Stop reasons reported in Result.
const (
	StopSteps     = "steps_exhausted"
	StopConverged = "converged"
	StopSettled   = "settled"
	StopSwept     = "sweep_complete"
	StopCancelled = "cancelled"
)

// StepResult describes one controller step.
type StepResult struct {
	Step         int                    `json:"step"`
	Cell         advisor.Cell           `json:"cell"`
	AzimuthDeg   float64                `json:"azimuth_deg"`
	ElevationDeg float64                `json:"elevation_deg"`
	MeasuredDBm  float64                `json:"measured_dbm"`
	Moved        advisor.Direction      `json:"moved"`
	Advice       advisor.Recommendation `json:"advice"`
}

// Result is the outcome of a run.
type Result struct {
	Steps  int          `json:"steps"`
	Reason string       `json:"reason"`
	View   session.View `json:"-"`

	// Peak is the snapshot peak after the run, as an absolute direction.
	PeakCell         advisor.Cell `json:"peak_cell"`
	PeakAzimuthDeg   float64      `json:"peak_azimuth_deg"`
	PeakElevationDeg float64      `json:"peak_elevation_deg"`
	// PointingErrorDeg is the off-axis angle between Peak and the true
	// boresight.
	PointingErrorDeg float64 `json:"pointing_error_deg"`

	Evaluation Evaluation `json:"evaluation"`
}

// Controller steers a simulated dish with the advisor in the loop.
//
// In manual mode it hill-climbs from the starting direction, measuring
// around each position before taking the session's advice. In absolute mode
// the grid origin is fixed, so it sweeps an outward square spiral around the
// reference instead.
type Controller struct {
	Session *session.Session
	Meter   *Meter
	Clock   *timectrl.TimeController
	Log     logging.Logger

	Config      advisor.Config
	ReferenceAz float64
	ReferenceEl float64
	Manual      bool
	Patience    int

	// OnStep, when set, is called after every step's tick.
	OnStep func(ctx context.Context, step StepResult, view session.View)
}

// Run drives the loop for at most maxSteps steps.
func (c *Controller) Run(ctx context.Context, maxSteps int) (Result, error) {
	if c.Session == nil || c.Meter == nil || c.Clock == nil {
		return Result{}, errors.New("controller needs a session, meter and clock")
	}
	if c.Log == nil {
		c.Log = logging.Noop()
	}
	loc := advisor.NewAngleLocator(c.ReferenceAz, c.ReferenceEl, c.Config.DegreesPerCell, c.Config.GridSize)
	center := loc.Origin()

	var (
		res    Result
		err    error
		reason = StopSteps
	)
	if c.Manual {
		reason, res.Steps, err = c.climb(ctx, loc, center, maxSteps)
	} else {
		reason, res.Steps, err = c.sweep(ctx, loc, center, maxSteps)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return Result{}, err
	}
	if errors.Is(err, context.Canceled) {
		reason = StopCancelled
	}
	res.Reason = reason

	view, verr := c.Session.View(context.WithoutCancel(ctx))
	if verr != nil {
		return Result{}, verr
	}
	res.View = view
	if view.Snapshot.HasData {
		res.PeakCell = view.Snapshot.Peak
		res.PeakAzimuthDeg, res.PeakElevationDeg = loc.DirectionOf(view.Snapshot.Peak)
		res.PointingErrorDeg = core.PointingErrorDeg(
			advisor.WrapAzimuthOffset(res.PeakAzimuthDeg-c.Meter.Truth.BoresightAzDeg),
			res.PeakElevationDeg-c.Meter.Truth.BoresightElDeg,
		)
	}
	res.Evaluation = Evaluate(view.Field, loc, c.Meter.Truth)
	return res, nil
}

// climb holds a home cell. Unmeasured neighbours of home are probed by
// stepping out and straight back; once all are measured, home moves one
// cell the way the session recommends.
func (c *Controller) climb(ctx context.Context, loc *advisor.AngleLocator, home advisor.Cell, maxSteps int) (string, int, error) {
	az, el := loc.DirectionOf(home)
	if err := c.Session.SubmitInPlace(c.Meter.Measure(az, el)); err != nil {
		return "", 0, err
	}
	if err := c.advance(ctx); err != nil {
		return "", 0, err
	}

	var (
		steps     int
		revisits  int
		rec       advisor.Recommendation
		cursor    = home
		homes     = map[advisor.Cell]bool{home: true}
		errBudget = errors.New("step budget exhausted")
	)
	move := func(dir advisor.Direction) error {
		if steps >= maxSteps {
			return errBudget
		}
		steps++
		cursor = clampCell(cursor.Offset(dir), c.Config.GridSize)
		az, el := loc.DirectionOf(cursor)
		p := c.Meter.Measure(az, el)
		if err := c.Session.SubmitRelative(dir, p); err != nil {
			return err
		}
		if err := c.advance(ctx); err != nil {
			return err
		}
		c.report(ctx, StepResult{
			Step: steps, Cell: cursor, AzimuthDeg: az, ElevationDeg: el,
			MeasuredDBm: p, Moved: dir, Advice: rec,
		})
		return nil
	}
	finish := func(err error) (string, int, error) {
		if errors.Is(err, errBudget) {
			return StopSteps, steps, nil
		}
		return "", steps, err
	}

	for {
		view, err := c.Session.View(ctx)
		if err != nil {
			return finish(err)
		}
		rec = view.Recommendation

		if dir, ok := unmeasured(view, home, c.Config.GridSize); ok {
			if err := move(dir); err != nil {
				return finish(err)
			}
			if err := move(opposite(dir)); err != nil {
				return finish(err)
			}
			continue
		}
		if converged(view, c.Config.GridSize) || rec.None() {
			return StopConverged, steps, nil
		}

		if err := move(rec.Direction); err != nil {
			return finish(err)
		}
		home = cursor
		if homes[home] {
			revisits++
			if c.Patience > 0 && revisits >= c.Patience {
				return StopSettled, steps, nil
			}
		} else {
			revisits = 0
			homes[home] = true
		}
	}
}

func (c *Controller) sweep(ctx context.Context, loc *advisor.AngleLocator, center advisor.Cell, maxSteps int) (string, int, error) {
	offsets := spiral(c.Config.GridSize / 2)
	for step := 1; step <= maxSteps; step++ {
		if step > len(offsets) {
			return StopSwept, step - 1, nil
		}
		view, err := c.Session.View(ctx)
		if err != nil {
			return "", step - 1, err
		}

		off := offsets[step-1]
		cell := advisor.Cell{Row: center.Row + off.Row, Col: center.Col + off.Col}
		az, el := loc.DirectionOf(cell)
		p := c.Meter.Measure(az, el)
		if err := c.Session.SubmitAbsolute(az, el, p); err != nil {
			return "", step - 1, err
		}
		if err := c.advance(ctx); err != nil {
			return "", step - 1, err
		}
		c.report(ctx, StepResult{
			Step: step, Cell: cell, AzimuthDeg: az, ElevationDeg: el,
			MeasuredDBm: p, Advice: view.Recommendation,
		})
	}
	return StopSteps, maxSteps, nil
}

// advance waits out a real-time tick when configured, then steps the clock
// so the session applies queued samples.
func (c *Controller) advance(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Clock.Mode == timectrl.RealTime {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Clock.Tick):
		}
	}
	c.Clock.Step()
	return nil
}

func (c *Controller) report(ctx context.Context, step StepResult) {
	c.Log.Debug(ctx, "controller step",
		logging.Int("step", step.Step),
		logging.String("cell", step.Cell.String()),
		logging.Float64("measured_dbm", step.MeasuredDBm),
		logging.String("moved", step.Moved.String()),
		logging.String("advice", step.Advice.Direction.String()),
		logging.String("advice_source", step.Advice.Source.String()),
	)
	if c.OnStep == nil {
		return
	}
	view, err := c.Session.View(ctx)
	if err != nil {
		return
	}
	c.OnStep(ctx, step, view)
}

// converged reports whether the origin is the snapshot peak and every
// in-grid neighbour has been measured.
func converged(v session.View, size int) bool {
	if !v.Snapshot.HasData || v.Origin != v.Snapshot.Peak {
		return false
	}
	known := knownSet(v)
	for _, d := range probeOrder {
		nb := v.Origin.Offset(d)
		if !inGrid(nb, size) {
			continue
		}
		if !known[nb] {
			return false
		}
	}
	return true
}

// unmeasured returns the first in-grid neighbour of c with no estimate.
func unmeasured(v session.View, c advisor.Cell, size int) (advisor.Direction, bool) {
	known := knownSet(v)
	for _, d := range probeOrder {
		nb := c.Offset(d)
		if inGrid(nb, size) && !known[nb] {
			return d, true
		}
	}
	return advisor.DirectionNone, false
}

func opposite(d advisor.Direction) advisor.Direction {
	switch d {
	case advisor.DirectionUp:
		return advisor.DirectionDown
	case advisor.DirectionDown:
		return advisor.DirectionUp
	case advisor.DirectionLeft:
		return advisor.DirectionRight
	case advisor.DirectionRight:
		return advisor.DirectionLeft
	default:
		return advisor.DirectionNone
	}
}

var probeOrder = []advisor.Direction{advisor.DirectionUp, advisor.DirectionRight, advisor.DirectionDown, advisor.DirectionLeft}

func knownSet(v session.View) map[advisor.Cell]bool {
	known := make(map[advisor.Cell]bool, len(v.Known))
	for _, st := range v.Known {
		known[st.Cell] = true
	}
	return known
}

func inGrid(c advisor.Cell, size int) bool {
	return c.Row >= 0 && c.Row < size && c.Col >= 0 && c.Col < size
}

func clampCell(c advisor.Cell, size int) advisor.Cell {
	c.Row = min(max(c.Row, 0), size-1)
	c.Col = min(max(c.Col, 0), size-1)
	return c
}

// spiral lists offsets ring by ring out to radius, starting at the centre.
// Each ring starts at its top-left corner and runs clockwise.
func spiral(radius int) []advisor.Cell {
	out := []advisor.Cell{{}}
	for r := 1; r <= radius; r++ {
		for col := -r; col <= r; col++ {
			out = append(out, advisor.Cell{Row: -r, Col: col})
		}
		for row := -r + 1; row <= r; row++ {
			out = append(out, advisor.Cell{Row: row, Col: r})
		}
		for col := r - 1; col >= -r; col-- {
			out = append(out, advisor.Cell{Row: r, Col: col})
		}
		for row := r - 1; row > -r; row-- {
			out = append(out, advisor.Cell{Row: row, Col: -r})
		}
	}
	return out
}
