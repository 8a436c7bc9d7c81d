// Package sim closes the loop between the link model and the advisor: a
// hidden true boresight produces noisy power readings, and a controller
// steers the dish using only the advisor's output.
package sim

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/signalsfoundry/dish-aligner/advisor"
	"github.com/signalsfoundry/dish-aligner/core"
)

// TruthField is the received power at site A as a function of where A's
// dish points. The far end is assumed perfectly aligned.
type TruthField struct {
	Link     core.LinkModel
	Geometry core.LinkGeometry

	// BoresightAz/El is the true direction of the far end.
	BoresightAzDeg float64
	BoresightElDeg float64
}

// PowerAt returns the noiseless received power with the dish at (az, el).
func (f TruthField) PowerAt(azDeg, elDeg float64) float64 {
	off := core.PointingErrorDeg(
		advisor.WrapAzimuthOffset(azDeg-f.BoresightAzDeg),
		elDeg-f.BoresightElDeg,
	)
	// Terminal B transmits on boresight; A receives off-axis.
	res := f.Link.BidirectionalLink(off, 0, f.Geometry.Distance(), f.Link.A.RainRateMmPerHour)
	return res.BtoA.ReceivedPowerDBm
}

// Meter reads the truth field through Gaussian measurement noise.
type Meter struct {
	Truth TruthField
	noise distuv.Normal
}

// NewMeter returns a meter with noise of sigmaDB, seeded for reproducible
// runs.
func NewMeter(truth TruthField, sigmaDB float64, seed uint64) *Meter {
	if sigmaDB < 0 {
		sigmaDB = 0
	}
	return &Meter{
		Truth: truth,
		noise: distuv.Normal{Mu: 0, Sigma: sigmaDB, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)},
	}
}

// Measure returns one noisy reading at (az, el).
func (m *Meter) Measure(azDeg, elDeg float64) float64 {
	p := m.Truth.PowerAt(azDeg, elDeg)
	if m.noise.Sigma == 0 {
		return p
	}
	return p + m.noise.Rand()
}
