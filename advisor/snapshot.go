package advisor

import "gonum.org/v1/gonum/stat"

// Snapshot summarises the known cells. When HasData is false no cell is
// known and the remaining fields are zero.
type Snapshot struct {
	HasData bool `json:"has_data"`

	// Peak is the first cell in row-major order holding the maximum
	// estimate.
	Peak    Cell    `json:"peak"`
	PeakDBm float64 `json:"peak_dbm"`

	MinDBm float64 `json:"min_dbm"`
	MaxDBm float64 `json:"max_dbm"`

	// MeanDBm and StdDevDBm are confidence-weighted over known cells.
	MeanDBm   float64 `json:"mean_dbm"`
	StdDevDBm float64 `json:"stddev_dbm"`

	KnownCells      int     `json:"known_cells"`
	TotalConfidence float64 `json:"total_confidence"`
}

// Snapshot scans the grid for the peak and the value range.
func (e *Estimator) Snapshot() Snapshot {
	g := e.grid
	var (
		snap    Snapshot
		values  []float64
		weights []float64
	)
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			c := Cell{Row: row, Col: col}
			i := g.index(c)
			v, ok := g.estimate[i].Value()
			if !ok {
				continue
			}
			if !snap.HasData {
				snap = Snapshot{HasData: true, Peak: c, PeakDBm: v, MinDBm: v, MaxDBm: v}
			} else {
				if v > snap.PeakDBm {
					snap.Peak, snap.PeakDBm, snap.MaxDBm = c, v, v
				}
				if v < snap.MinDBm {
					snap.MinDBm = v
				}
			}
			values = append(values, v)
			weights = append(weights, g.confidence[i])
		}
	}
	snap.KnownCells = len(values)
	snap.TotalConfidence = g.totalConfidence()
	if snap.HasData {
		snap.MeanDBm, snap.StdDevDBm = stat.PopMeanStdDev(values, weights)
	}
	return snap
}
