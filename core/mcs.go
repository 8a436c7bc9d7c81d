package core

// LinkQuality is a coarse, human-readable classification of link
// quality derived from the SNR estimate.
type LinkQuality string

const (
	LinkQualityDown      LinkQuality = "down"
	LinkQualityPoor      LinkQuality = "poor"
	LinkQualityFair      LinkQuality = "fair"
	LinkQualityGood      LinkQuality = "good"
	LinkQualityExcellent LinkQuality = "excellent"
)

// ReferenceBandwidthMHz is the channel width RecommendMCS quotes
// throughput for. LinkModel.MCS rescales to the configured bandwidth.
const ReferenceBandwidthMHz = 20.0

// MCSTier is one rung of the modulation ladder. Thresholds are soft and
// meant for operator feedback only; they are not taken from any standard.
type MCSTier struct {
	Name string `json:"Name"`

	// MinSNRdB is the lowest SNR at which the tier is offered.
	MinSNRdB float64 `json:"MinSNRdB"`

	// SpectralEfficiency in bit/s/Hz after coding.
	SpectralEfficiency float64 `json:"SpectralEfficiency"`

	EstimatedThroughputMbps float64     `json:"EstimatedThroughputMbps"`
	Quality                 LinkQuality `json:"Quality"`
	Comment                 string      `json:"Comment"`
}

// mcsLadder is ordered from most to least demanding.
var mcsLadder = []MCSTier{
	{Name: "1024QAM-5/6", MinSNRdB: 32, SpectralEfficiency: 8.3, Quality: LinkQualityExcellent, Comment: "aligned; full capacity"},
	{Name: "256QAM-3/4", MinSNRdB: 25, SpectralEfficiency: 6.0, Quality: LinkQualityExcellent, Comment: "strong link with fade margin"},
	{Name: "64QAM-2/3", MinSNRdB: 19, SpectralEfficiency: 4.0, Quality: LinkQualityGood, Comment: "usable; fine alignment may add a tier"},
	{Name: "16QAM-1/2", MinSNRdB: 12, SpectralEfficiency: 2.0, Quality: LinkQualityFair, Comment: "marginal; keep aligning"},
	{Name: "QPSK-1/2", MinSNRdB: 5, SpectralEfficiency: 1.0, Quality: LinkQualityPoor, Comment: "weak; likely on a sidelobe"},
	{Name: "BPSK-1/2", MinSNRdB: 0, SpectralEfficiency: 0.5, Quality: LinkQualityPoor, Comment: "barely synchronised"},
}

var mcsNoLink = MCSTier{
	Name:     "none",
	MinSNRdB: -1e9,
	Quality:  LinkQualityDown,
	Comment:  "no usable signal",
}

// RecommendMCS maps an SNR onto the tier ladder, quoting throughput for a
// ReferenceBandwidthMHz channel.
func RecommendMCS(snrDB float64) MCSTier {
	return tierFor(snrDB, ReferenceBandwidthMHz)
}

// MCSTiers returns a copy of the ladder, most demanding first.
func MCSTiers() []MCSTier {
	out := make([]MCSTier, len(mcsLadder))
	copy(out, mcsLadder)
	return out
}

func tierFor(snrDB, bandwidthMHz float64) MCSTier {
	for _, tier := range mcsLadder {
		if snrDB >= tier.MinSNRdB {
			tier.EstimatedThroughputMbps = tier.SpectralEfficiency * bandwidthMHz
			return tier
		}
	}
	return mcsNoLink
}
