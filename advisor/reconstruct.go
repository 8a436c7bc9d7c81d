package advisor

import (
	"encoding/json"
	"math"
)

// Kernel parameterises reconstruction. Radius is in cells and bounds a
// Euclidean disc; Sigma is the Gaussian width in cells.
type Kernel struct {
	Radius int     `json:"radius" yaml:"radius"`
	Sigma  float64 `json:"sigma" yaml:"sigma"`
}

// DefaultKernel smooths over a radius of two cells.
func DefaultKernel() Kernel {
	return Kernel{Radius: 2, Sigma: 1}
}

func (k Kernel) normalized() Kernel {
	if k.Radius < 0 {
		k.Radius = 0
	}
	if !(k.Sigma > 0) || math.IsInf(k.Sigma, 0) {
		k.Sigma = math.Max(float64(k.Radius), 1) / 2
	}
	return k
}

// Field is a reconstructed, denoised grid. Cells with no contributing
// weight are unknown.
type Field struct {
	size   int
	values []Power
	weight []float64
}

// Size returns the side length.
func (f Field) Size() int { return f.size }

// At returns the reconstructed value at (row, col); off-grid is unknown.
func (f Field) At(row, col int) Power {
	if row < 0 || row >= f.size || col < 0 || col >= f.size {
		return Unknown
	}
	return f.values[row*f.size+col]
}

// Weight returns the summed kernel weight behind (row, col).
func (f Field) Weight(row, col int) float64 {
	if row < 0 || row >= f.size || col < 0 || col >= f.size {
		return 0
	}
	return f.weight[row*f.size+col]
}

// Known counts reconstructed cells.
func (f Field) Known() int {
	n := 0
	for _, v := range f.values {
		if v.IsKnown() {
			n++
		}
	}
	return n
}

// Peak returns the first reconstructed maximum in row-major order; ok is
// false for an all-unknown field.
func (f Field) Peak() (c Cell, dbm float64, ok bool) {
	for i, v := range f.values {
		x, known := v.Value()
		if !known {
			continue
		}
		if !ok || x > dbm {
			c, dbm, ok = Cell{Row: i / f.size, Col: i % f.size}, x, true
		}
	}
	return c, dbm, ok
}

// Rows returns the field as row-major nested slices for rendering.
func (f Field) Rows() [][]Power {
	out := make([][]Power, f.size)
	for r := range out {
		out[r] = append([]Power(nil), f.values[r*f.size:(r+1)*f.size]...)
	}
	return out
}

// MarshalJSON encodes the field as rows of nullable dBm values.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Size   int       `json:"size"`
		Values [][]Power `json:"values"`
	}{Size: f.size, Values: f.Rows()})
}

// Reconstruct smooths the raw grid with a confidence-weighted Gaussian
// kernel. Each output cell averages the known cells within the kernel
// disc, weighting each by confidence·exp(−d²/2σ²). The grid itself is not
// modified.
func (e *Estimator) Reconstruct(k Kernel) Field {
	k = k.normalized()
	g := e.grid
	n := g.size
	field := Field{
		size:   n,
		values: make([]Power, n*n),
		weight: make([]float64, n*n),
	}

	r := k.Radius
	twoSigmaSq := 2 * k.Sigma * k.Sigma
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			var sum, wsum float64
			for dr := -r; dr <= r; dr++ {
				for dc := -r; dc <= r; dc++ {
					d2 := float64(dr*dr + dc*dc)
					if d2 > float64(r*r) {
						continue
					}
					nb := Cell{Row: row + dr, Col: col + dc}
					if !g.contains(nb) {
						continue
					}
					i := g.index(nb)
					v, ok := g.estimate[i].Value()
					if !ok {
						continue
					}
					w := g.confidence[i] * math.Exp(-d2/twoSigmaSq)
					sum += w * v
					wsum += w
				}
			}
			out := row*n + col
			field.weight[out] = wsum
			if wsum > 0 {
				field.values[out] = Known(sum / wsum)
			}
		}
	}
	return field
}
