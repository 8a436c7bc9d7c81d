// Package pointing derives an absolute azimuth/elevation reference for the
// advisor, either pinned in configuration or tracked from a satellite TLE.
package pointing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

var (
	// ErrInvalidTLE indicates TLE lines that fail basic format checks.
	ErrInvalidTLE = errors.New("invalid TLE")
	// ErrPropagation indicates SGP4 produced a non-finite or implausible state.
	ErrPropagation = errors.New("sgp4 propagation failed")
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Observer is a ground site in geodetic coordinates.
type Observer struct {
	LatitudeDeg  float64 `json:"latitude_deg" yaml:"latitude_deg"`
	LongitudeDeg float64 `json:"longitude_deg" yaml:"longitude_deg"`
	AltitudeM    float64 `json:"altitude_m" yaml:"altitude_m"`
}

// LookAngles is the topocentric direction from an observer to a target.
type LookAngles struct {
	AzimuthDeg   float64 `json:"azimuth_deg"`
	ElevationDeg float64 `json:"elevation_deg"`
	RangeKm      float64 `json:"range_km"`
}

// Reference is the direction pinned to the advisor grid centre.
type Reference struct {
	AzimuthDeg   float64 `json:"azimuth_deg"`
	ElevationDeg float64 `json:"elevation_deg"`
	Source       string  `json:"source"`
}

// Fixed returns a configured reference, with azimuth folded into [0, 360).
func Fixed(azDeg, elDeg float64) Reference {
	return Reference{AzimuthDeg: normalizeAzimuth(azDeg), ElevationDeg: elDeg, Source: "fixed"}
}

// Target tracks one satellite with SGP4.
type Target struct {
	sat satellite.Satellite
}

// NewTarget parses TLE lines. Lines are checked before they reach
// go-satellite, which aborts the process on malformed input.
func NewTarget(line1, line2 string) (*Target, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTLE, err)
	}
	sat := satellite.TLEToSat(strings.TrimSpace(line1), strings.TrimSpace(line2), satellite.GravityWGS84)
	return &Target{sat: sat}, nil
}

func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// LookAngles propagates the target to at and returns the direction seen
// from obs.
func (t *Target) LookAngles(obs Observer, at time.Time) (LookAngles, error) {
	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	pos, _ := satellite.Propagate(t.sat, year, int(month), day, hour, min, sec)
	if !finite(pos.X) || !finite(pos.Y) || !finite(pos.Z) {
		return LookAngles{}, fmt.Errorf("%w: position is NaN/Inf", ErrPropagation)
	}
	if mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z); mag < 6200 || mag > 50000 {
		return LookAngles{}, fmt.Errorf("%w: position magnitude %.1f km", ErrPropagation, mag)
	}

	jday := satellite.JDay(year, int(month), day, hour, min, sec)
	site := satellite.LatLong{
		Latitude:  obs.LatitudeDeg * degToRad,
		Longitude: obs.LongitudeDeg * degToRad,
	}
	la := satellite.ECIToLookAngles(pos, site, obs.AltitudeM/1000, jday)

	return LookAngles{
		AzimuthDeg:   normalizeAzimuth(la.Az * radToDeg),
		ElevationDeg: la.El * radToDeg,
		RangeKm:      la.Rg,
	}, nil
}

// Reference returns the look angles at time at as an advisor reference.
func (t *Target) Reference(obs Observer, at time.Time) (Reference, error) {
	la, err := t.LookAngles(obs, at)
	if err != nil {
		return Reference{}, err
	}
	return Reference{AzimuthDeg: la.AzimuthDeg, ElevationDeg: la.ElevationDeg, Source: "tle"}, nil
}

func normalizeAzimuth(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
