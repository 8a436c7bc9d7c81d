package sim

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/signalsfoundry/dish-aligner/advisor"
)

// Evaluation compares a reconstructed field against the noiseless truth.
type Evaluation struct {
	Cells         int     `json:"cells"`
	RMSEdB        float64 `json:"rmse_db"`
	MaxAbsErrorDB float64 `json:"max_abs_error_db"`
}

// Evaluate scores every known cell of field. loc maps cells back to the
// directions the truth field is sampled at.
func Evaluate(field advisor.Field, loc *advisor.AngleLocator, truth TruthField) Evaluation {
	var est, want []float64
	n := field.Size()
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v, ok := field.At(row, col).Value()
			if !ok {
				continue
			}
			az, el := loc.DirectionOf(advisor.Cell{Row: row, Col: col})
			est = append(est, v)
			want = append(want, truth.PowerAt(az, el))
		}
	}
	if len(est) == 0 {
		return Evaluation{}
	}
	return Evaluation{
		Cells:         len(est),
		RMSEdB:        floats.Distance(est, want, 2) / math.Sqrt(float64(len(est))),
		MaxAbsErrorDB: floats.Distance(est, want, math.Inf(1)),
	}
}
