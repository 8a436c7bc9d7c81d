// Package advisor turns single-direction power readings into a 2D belief
// map around a pointing reference and suggests which way to move the dish
// next.
//
// The estimator is synchronous and holds no locks: calls are applied in
// the order they are made and a host that feeds it from several sources
// must serialise them. Confidence decay is never implied by sampling;
// callers invoke Decay from their own tick source.
package advisor

import "fmt"

// Estimator is the addressing-agnostic core shared by AbsoluteEstimator
// and ManualEstimator.
type Estimator struct {
	cfg  Config
	grid *grid
	loc  Locator
}

func newEstimator(cfg Config, loc Locator) *Estimator {
	return &Estimator{
		cfg:  cfg,
		grid: newGrid(cfg.GridSize),
		loc:  loc,
	}
}

// Config returns the configuration the estimator was built with.
func (e *Estimator) Config() Config { return e.cfg }

// Size returns the grid side length.
func (e *Estimator) Size() int { return e.grid.size }

// Origin returns the cell the dish currently points at.
func (e *Estimator) Origin() Cell { return e.loc.Origin() }

// RecordInPlace folds a reading into the origin cell without moving.
// Non-finite readings are dropped and ok is false.
func (e *Estimator) RecordInPlace(dbm float64) (Cell, bool) {
	c := e.loc.Origin()
	return c, e.ingest(c, dbm)
}

// ingest applies one reading at c. It is the single write path into the
// grid.
func (e *Estimator) ingest(c Cell, dbm float64) bool {
	if !isFinite(dbm) || !e.grid.contains(c) {
		return false
	}
	e.grid.update(c, dbm, e.cfg.EMAAlpha, e.cfg.ConfidenceGainPerSample)
	return true
}

// Decay runs one forgetting tick and returns how many cells became
// unknown.
func (e *Estimator) Decay() int {
	return e.grid.decay(e.cfg.ConfidenceDecayPerTick)
}

// Reset forgets every cell and returns the origin to the centre.
func (e *Estimator) Reset() {
	e.grid.reset()
	e.loc.reset()
}

// Cell returns the state at (row, col); ok is false off-grid.
func (e *Estimator) Cell(row, col int) (CellState, bool) {
	c := Cell{Row: row, Col: col}
	if !e.grid.contains(c) {
		return CellState{}, false
	}
	return e.grid.state(c), true
}

// Cells returns a row-major copy of every cell.
func (e *Estimator) Cells() []CellState {
	out := make([]CellState, 0, e.grid.size*e.grid.size)
	for row := 0; row < e.grid.size; row++ {
		for col := 0; col < e.grid.size; col++ {
			out = append(out, e.grid.state(Cell{Row: row, Col: col}))
		}
	}
	return out
}

// KnownCells returns how many cells hold an estimate.
func (e *Estimator) KnownCells() int { return e.grid.knownCount() }

// TotalConfidence sums confidence over the grid.
func (e *Estimator) TotalConfidence() float64 { return e.grid.totalConfidence() }

// AbsoluteEstimator addresses cells by absolute azimuth/elevation relative
// to a fixed reference direction.
type AbsoluteEstimator struct {
	*Estimator
	angles *AngleLocator
}

// NewAbsoluteEstimator validates cfg and allocates an all-unknown grid
// centred on (refAzDeg, refElDeg).
func NewAbsoluteEstimator(refAzDeg, refElDeg float64, cfg Config) (*AbsoluteEstimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("advisor config: %w", err)
	}
	if !isFinite(refAzDeg) || !isFinite(refElDeg) {
		return nil, fmt.Errorf("advisor reference must be finite, got az=%v el=%v", refAzDeg, refElDeg)
	}
	angles := NewAngleLocator(refAzDeg, refElDeg, cfg.DegreesPerCell, cfg.GridSize)
	return &AbsoluteEstimator{
		Estimator: newEstimator(cfg, angles),
		angles:    angles,
	}, nil
}

// AddAbsoluteSample folds a reading taken at (azDeg, elDeg) into its cell.
// Directions that fall off the grid and non-finite readings are dropped
// silently; applied reports which happened.
func (a *AbsoluteEstimator) AddAbsoluteSample(azDeg, elDeg, dbm float64) (c Cell, applied bool) {
	c, ok := a.angles.Locate(azDeg, elDeg)
	if !ok {
		return c, false
	}
	return c, a.ingest(c, dbm)
}

// CellFor maps a direction to its cell without recording anything.
func (a *AbsoluteEstimator) CellFor(azDeg, elDeg float64) (Cell, bool) {
	return a.angles.Locate(azDeg, elDeg)
}

// DirectionOf returns the absolute direction at the centre of c.
func (a *AbsoluteEstimator) DirectionOf(c Cell) (azDeg, elDeg float64) {
	return a.angles.DirectionOf(c)
}

// Reference returns the direction pinned to the grid centre.
func (a *AbsoluteEstimator) Reference() (azDeg, elDeg float64) {
	return a.angles.Reference()
}

// ManualEstimator addresses cells through a cursor moved one cell per
// relative sample.
type ManualEstimator struct {
	*Estimator
	cursor *CursorLocator
}

// NewManualEstimator validates cfg and allocates an all-unknown grid with
// the cursor at the centre.
func NewManualEstimator(cfg Config) (*ManualEstimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("advisor config: %w", err)
	}
	cursor := NewCursorLocator(cfg.GridSize)
	return &ManualEstimator{
		Estimator: newEstimator(cfg, cursor),
		cursor:    cursor,
	}, nil
}

// AddRelativeSample steps the cursor one cell in d (clamped at the edge)
// and folds the reading in at the new position. The step happens even
// when the reading is dropped as non-finite, since the dish did move.
// DirectionNone records in place.
func (m *ManualEstimator) AddRelativeSample(d Direction, dbm float64) (Cell, bool) {
	c := m.cursor.Step(d)
	return c, m.ingest(c, dbm)
}

// Cursor returns the current cursor cell.
func (m *ManualEstimator) Cursor() Cell { return m.cursor.Origin() }
