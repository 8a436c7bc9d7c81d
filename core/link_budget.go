package core

import "math"

// OneWayResult is the breakdown of a single transmit→receive direction.
// All fields are in dB/dBm/dBi as named.
type OneWayResult struct {
	ReceivedPowerDBm float64 `json:"ReceivedPowerDBm"`
	TxGainDBi        float64 `json:"TxGainDBi"`
	RxGainDBi        float64 `json:"RxGainDBi"`
	PathLossDB       float64 `json:"PathLossDB"`
	RainLossDB       float64 `json:"RainLossDB"`
}

// DirectionReport adds the noise-side view to a OneWayResult.
type DirectionReport struct {
	OneWayResult
	SNRdB float64 `json:"SNRdB"`
	MCS   MCSTier `json:"MCS"`
}

// LinkReport is the outcome of evaluating both directions of a hop.
type LinkReport struct {
	DistanceM float64         `json:"DistanceM"`
	AtoB      DirectionReport `json:"AtoB"`
	BtoA      DirectionReport `json:"BtoA"`
}

// Bottleneck returns the direction with the lower SNR. Ties report A→B.
func (r LinkReport) Bottleneck() DirectionReport {
	if r.BtoA.SNRdB < r.AtoB.SNRdB {
		return r.BtoA
	}
	return r.AtoB
}

// LinkModel evaluates link budgets for a hop between two terminals. Side A
// and side B usually share one LinkConfig; NewAsymmetricLinkModel allows
// mismatched hardware.
type LinkModel struct {
	A LinkConfig
	B LinkConfig
}

// NewLinkModel returns a model where both ends use cfg.
func NewLinkModel(cfg LinkConfig) LinkModel {
	cfg = cfg.Normalized()
	return LinkModel{A: cfg, B: cfg}
}

// NewAsymmetricLinkModel returns a model with distinct terminals.
func NewAsymmetricLinkModel(a, b LinkConfig) LinkModel {
	return LinkModel{A: a.Normalized(), B: b.Normalized()}
}

// OneWayReceivedPower computes Pt + Gt + Gr − FSPL − Lsys − Lrain for
// terminal A transmitting to terminal B. The carrier is A's frequency.
func (m LinkModel) OneWayReceivedPower(txOffAxisDeg, rxOffAxisDeg, distanceM, rainRateMmPerHour float64) OneWayResult {
	return oneWay(m.A, m.B, txOffAxisDeg, rxOffAxisDeg, distanceM, rainRateMmPerHour)
}

// SNR returns the SNR of a received power at terminal B's receiver.
func (m LinkModel) SNR(receivedPowerDBm float64) float64 {
	return SNR(receivedPowerDBm, m.B.BandwidthMHz, m.B.NoiseFigureDB)
}

// MCS classifies snrDB, quoting throughput for terminal B's channel width.
func (m LinkModel) MCS(snrDB float64) MCSTier {
	return tierFor(snrDB, floorFinite(m.B.BandwidthMHz, MinBandwidthMHz))
}

// BidirectionalLink evaluates both directions. thetaADeg is terminal A's
// off-axis error relative to the A–B line and thetaBDeg is B's; each
// side's angle is used for its transmit gain in one direction and its
// receive gain in the other.
func (m LinkModel) BidirectionalLink(thetaADeg, thetaBDeg, distanceM, rainRateMmPerHour float64) LinkReport {
	d := floorFinite(distanceM, MinDistanceM)

	ab := oneWay(m.A, m.B, thetaADeg, thetaBDeg, d, rainRateMmPerHour)
	ba := oneWay(m.B, m.A, thetaBDeg, thetaADeg, d, rainRateMmPerHour)

	snrAB := SNR(ab.ReceivedPowerDBm, m.B.BandwidthMHz, m.B.NoiseFigureDB)
	snrBA := SNR(ba.ReceivedPowerDBm, m.A.BandwidthMHz, m.A.NoiseFigureDB)

	return LinkReport{
		DistanceM: d,
		AtoB: DirectionReport{
			OneWayResult: ab,
			SNRdB:        snrAB,
			MCS:          tierFor(snrAB, floorFinite(m.B.BandwidthMHz, MinBandwidthMHz)),
		},
		BtoA: DirectionReport{
			OneWayResult: ba,
			SNRdB:        snrBA,
			MCS:          tierFor(snrBA, floorFinite(m.A.BandwidthMHz, MinBandwidthMHz)),
		},
	}
}

// EvaluateGeometry is BidirectionalLink with the distance taken from geom
// and the rain rate from terminal A's config.
func (m LinkModel) EvaluateGeometry(geom LinkGeometry, thetaADeg, thetaBDeg float64) LinkReport {
	return m.BidirectionalLink(thetaADeg, thetaBDeg, geom.Distance(), m.A.RainRateMmPerHour)
}

func oneWay(tx, rx LinkConfig, txOffAxisDeg, rxOffAxisDeg, distanceM, rainRateMmPerHour float64) OneWayResult {
	tx = tx.Normalized()
	rx = rx.Normalized()

	gt := DishGain(tx, txOffAxisDeg)
	// The receiving dish sees the transmitter's carrier.
	rxAtCarrier := rx
	rxAtCarrier.FrequencyGHz = tx.FrequencyGHz
	gr := DishGain(rxAtCarrier, rxOffAxisDeg)

	fspl := FreeSpacePathLoss(distanceM, tx.FrequencyGHz)
	rain := 0.0
	if !math.IsNaN(rainRateMmPerHour) {
		rain = RainAttenuation(distanceM, rainRateMmPerHour, tx.FrequencyGHz)
	}

	return OneWayResult{
		ReceivedPowerDBm: tx.TxPowerDBm + gt + gr - fspl - tx.SystemLossDB - rain,
		TxGainDBi:        gt,
		RxGainDBi:        gr,
		PathLossDB:       fspl,
		RainLossDB:       rain,
	}
}
