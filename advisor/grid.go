package advisor

// residualFraction is the share of one decay step below which leftover
// confidence counts as zero. Repeated subtraction of a non-representable
// rate (0.1, 0.05, ...) then lands on zero on the tick exact arithmetic
// would, at any scale of gain and rate.
const residualFraction = 1e-9

// CellState is a read-only view of one grid cell.
type CellState struct {
	Cell
	Estimate   Power   `json:"estimate"`
	Confidence float64 `json:"confidence"`
}

// grid is the exclusively owned N×N belief store. Every cell is either
// unknown with zero confidence or known with positive confidence.
type grid struct {
	size       int
	estimate   []Power
	confidence []float64
}

func newGrid(size int) *grid {
	return &grid{
		size:       size,
		estimate:   make([]Power, size*size),
		confidence: make([]float64, size*size),
	}
}

func (g *grid) center() Cell {
	return Cell{Row: g.size / 2, Col: g.size / 2}
}

func (g *grid) contains(c Cell) bool {
	return c.Row >= 0 && c.Row < g.size && c.Col >= 0 && c.Col < g.size
}

func (g *grid) index(c Cell) int {
	return c.Row*g.size + c.Col
}

// at returns the estimate at c, or Unknown when c is off-grid.
func (g *grid) at(c Cell) Power {
	if !g.contains(c) {
		return Unknown
	}
	return g.estimate[g.index(c)]
}

func (g *grid) state(c Cell) CellState {
	i := g.index(c)
	return CellState{Cell: c, Estimate: g.estimate[i], Confidence: g.confidence[i]}
}

// update folds one reading into c: the first reading seeds the estimate,
// later ones move it by alpha toward the reading.
func (g *grid) update(c Cell, dbm, alpha, gain float64) {
	i := g.index(c)
	if prev, ok := g.estimate[i].Value(); ok {
		g.estimate[i] = Known(prev + alpha*(dbm-prev))
	} else {
		g.estimate[i] = Known(dbm)
	}
	g.confidence[i] += gain
}

// decay lowers every confidence by rate and forgets cells that reach
// zero. It returns how many cells were forgotten.
func (g *grid) decay(rate float64) int {
	if rate <= 0 {
		return 0
	}
	cutoff := rate * residualFraction
	cleared := 0
	for i, conf := range g.confidence {
		if conf <= 0 {
			continue
		}
		conf -= rate
		if conf <= cutoff {
			g.confidence[i] = 0
			g.estimate[i] = Unknown
			cleared++
			continue
		}
		g.confidence[i] = conf
	}
	return cleared
}

func (g *grid) reset() {
	for i := range g.estimate {
		g.estimate[i] = Unknown
		g.confidence[i] = 0
	}
}

func (g *grid) knownCount() int {
	n := 0
	for _, p := range g.estimate {
		if p.IsKnown() {
			n++
		}
	}
	return n
}

func (g *grid) totalConfidence() float64 {
	sum := 0.0
	for _, c := range g.confidence {
		sum += c
	}
	return sum
}
