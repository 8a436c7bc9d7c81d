package advisor

import "math"

// GradientDeadZoneDB is the smallest neighbour difference treated as a
// usable local gradient.
const GradientDeadZoneDB = 0.5

// MoveSource records which heuristic produced a recommendation.
type MoveSource int

const (
	SourceNone MoveSource = iota
	SourceGradient
	SourcePeak
)

func (s MoveSource) String() string {
	switch s {
	case SourceGradient:
		return "gradient"
	case SourcePeak:
		return "peak"
	default:
		return "none"
	}
}

// MarshalText encodes the source by name.
func (s MoveSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Recommendation is a suggested one-cell move from the origin.
type Recommendation struct {
	Direction Direction  `json:"direction"`
	Source    MoveSource `json:"source"`

	// Dx is right minus left and Dy is down minus up, with unknown
	// neighbours ranked below every value. Either may be infinite.
	Dx float64 `json:"-"`
	Dy float64 `json:"-"`

	// Target is the peak cell steered toward when Source is SourcePeak.
	Target Cell `json:"target"`
}

// None reports whether no move is suggested.
func (r Recommendation) None() bool { return r.Direction == DirectionNone }

// RecommendMove reads the four raw neighbours of the origin. A gradient
// strictly larger than GradientDeadZoneDB wins, steering along the axis of
// larger magnitude (ties go horizontal). Otherwise the move heads toward
// the snapshot peak when it is at least one cell away.
func (e *Estimator) RecommendMove() Recommendation {
	origin := e.loc.Origin()
	g := e.grid

	up := g.at(origin.Offset(DirectionUp)).rank()
	down := g.at(origin.Offset(DirectionDown)).rank()
	left := g.at(origin.Offset(DirectionLeft)).rank()
	right := g.at(origin.Offset(DirectionRight)).rank()

	rec := Recommendation{
		Dx:     gradient(right, left),
		Dy:     gradient(down, up),
		Target: origin,
	}

	ax, ay := math.Abs(rec.Dx), math.Abs(rec.Dy)
	if math.Max(ax, ay) > GradientDeadZoneDB {
		rec.Source = SourceGradient
		if ax >= ay {
			rec.Direction = signDirection(rec.Dx, DirectionRight, DirectionLeft)
		} else {
			rec.Direction = signDirection(rec.Dy, DirectionDown, DirectionUp)
		}
		rec.Target = origin.Offset(rec.Direction)
		return rec
	}

	snap := e.Snapshot()
	if !snap.HasData || snap.Peak == origin {
		return rec
	}
	rec.Source = SourcePeak
	rec.Target = snap.Peak
	rec.Direction = toward(origin, snap.Peak)
	return rec
}

// gradient returns a − b where unknowns carry −Inf. Two unknowns give NaN,
// which is treated as no signal.
func gradient(a, b float64) float64 {
	d := a - b
	if math.IsNaN(d) {
		return 0
	}
	return d
}

func signDirection(v float64, pos, neg Direction) Direction {
	if v > 0 {
		return pos
	}
	return neg
}

// toward picks the cardinal step from origin to target along the axis
// with the larger offset, horizontal on ties.
func toward(origin, target Cell) Direction {
	dr := target.Row - origin.Row
	dc := target.Col - origin.Col
	if absInt(dc) >= absInt(dr) {
		return signDirection(float64(dc), DirectionRight, DirectionLeft)
	}
	return signDirection(float64(dr), DirectionDown, DirectionUp)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
