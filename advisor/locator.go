package advisor

import "math"

// Locator decides which cell a reading belongs to. An estimator is bound
// to exactly one locator for its lifetime, which fixes its addressing
// mode.
type Locator interface {
	// Origin is the cell the dish currently points at: the reference cell
	// for angle addressing, the cursor for manual addressing.
	Origin() Cell

	reset()
}

// AngleLocator maps absolute azimuth/elevation onto a grid whose centre
// is pinned to a reference direction.
type AngleLocator struct {
	refAz, refEl   float64
	degreesPerCell float64
	size           int
}

// NewAngleLocator pins the grid centre to (refAzDeg, refElDeg).
func NewAngleLocator(refAzDeg, refElDeg, degreesPerCell float64, size int) *AngleLocator {
	return &AngleLocator{
		refAz:          refAzDeg,
		refEl:          refElDeg,
		degreesPerCell: degreesPerCell,
		size:           size,
	}
}

// Origin returns the centre cell.
func (l *AngleLocator) Origin() Cell {
	return Cell{Row: l.size / 2, Col: l.size / 2}
}

func (l *AngleLocator) reset() {}

// Reference returns the direction the centre cell is pinned to.
func (l *AngleLocator) Reference() (azDeg, elDeg float64) {
	return l.refAz, l.refEl
}

// Locate maps an absolute direction to a cell. The azimuth offset is
// wrapped into (−180°, 180°] first so 359° and 1° land either side of a
// 0° reference. ok is false when the direction falls off the grid or is
// not finite.
func (l *AngleLocator) Locate(azDeg, elDeg float64) (Cell, bool) {
	if !isFinite(azDeg) || !isFinite(elDeg) {
		return Cell{}, false
	}
	azOff := WrapAzimuthOffset(azDeg - l.refAz)
	elOff := elDeg - l.refEl

	rows := math.Round(elOff / l.degreesPerCell)
	cols := math.Round(azOff / l.degreesPerCell)
	if math.Abs(rows) > float64(l.size) || math.Abs(cols) > float64(l.size) {
		return Cell{}, false
	}

	center := l.size / 2
	c := Cell{
		Row: center - int(rows),
		Col: center + int(cols),
	}
	if c.Row < 0 || c.Row >= l.size || c.Col < 0 || c.Col >= l.size {
		return c, false
	}
	return c, true
}

// DirectionOf returns the absolute direction at the centre of c, with
// azimuth normalised into [0, 360).
func (l *AngleLocator) DirectionOf(c Cell) (azDeg, elDeg float64) {
	center := l.size / 2
	az := l.refAz + float64(c.Col-center)*l.degreesPerCell
	el := l.refEl + float64(center-c.Row)*l.degreesPerCell
	az = math.Mod(az, 360)
	if az < 0 {
		az += 360
	}
	return az, el
}

// WrapAzimuthOffset folds an azimuth difference into (−180°, 180°].
func WrapAzimuthOffset(deg float64) float64 {
	w := math.Mod(deg+180, 360)
	if w < 0 {
		w += 360
	}
	w -= 180
	if w == -180 {
		return 180
	}
	return w
}

// CursorLocator tracks a cursor stepped one cell at a time from the
// centre. There is no absolute angle; the grid is a bounded neighbourhood
// around wherever the dish started.
type CursorLocator struct {
	cursor Cell
	size   int
}

// NewCursorLocator places the cursor at the centre of a size×size grid.
func NewCursorLocator(size int) *CursorLocator {
	l := &CursorLocator{size: size}
	l.reset()
	return l
}

// Origin returns the cursor.
func (l *CursorLocator) Origin() Cell { return l.cursor }

func (l *CursorLocator) reset() {
	l.cursor = Cell{Row: l.size / 2, Col: l.size / 2}
}

// Step moves the cursor one cell in d, clamped at the grid edges, and
// returns the new position.
func (l *CursorLocator) Step(d Direction) Cell {
	next := l.cursor.Offset(d)
	next.Row = clampInt(next.Row, 0, l.size-1)
	next.Col = clampInt(next.Col, 0, l.size-1)
	l.cursor = next
	return next
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
