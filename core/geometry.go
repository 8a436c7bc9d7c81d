package core

import "math"

// Vec3 is a site position in a local Cartesian frame, in metres.
type Vec3 struct {
	X float64 `json:"X" yaml:"x"`
	Y float64 `json:"Y" yaml:"y"`
	Z float64 `json:"Z" yaml:"z"`
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// LinkGeometry fixes the two ends of a hop. The off-axis angles passed to
// LinkModel.BidirectionalLink and LinkModel.EvaluateGeometry are measured
// from the line joining SiteA and SiteB.
type LinkGeometry struct {
	SiteA Vec3 `json:"SiteA" yaml:"site_a"`
	SiteB Vec3 `json:"SiteB" yaml:"site_b"`
}

// Distance returns the hop length, floored at MinDistanceM.
func (g LinkGeometry) Distance() float64 {
	d := g.SiteA.DistanceTo(g.SiteB)
	if math.IsNaN(d) || d < MinDistanceM {
		return MinDistanceM
	}
	return d
}

// BearingAtoB returns the azimuth (degrees clockwise from +Y, in [0,360))
// and elevation (degrees above the XY plane) of SiteB as seen from SiteA.
// Y is north, X is east, Z is up.
func (g LinkGeometry) BearingAtoB() (azDeg, elDeg float64) {
	v := g.SiteB.Sub(g.SiteA)
	horiz := math.Hypot(v.X, v.Y)
	if horiz == 0 && v.Z == 0 {
		return 0, 0
	}
	azDeg = math.Mod(math.Atan2(v.X, v.Y)*180/math.Pi+360, 360)
	elDeg = math.Atan2(v.Z, horiz) * 180 / math.Pi
	return azDeg, elDeg
}
