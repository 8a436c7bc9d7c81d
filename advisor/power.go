package advisor

import (
	"math"
	"strconv"
)

// Power is an optional dBm value. The zero value is Unknown, which is
// distinct from a genuine 0 dBm reading.
type Power struct {
	dbm   float64
	known bool
}

// Unknown is the absent Power.
var Unknown = Power{}

// Known wraps a measured or estimated dBm value.
func Known(dbm float64) Power {
	return Power{dbm: dbm, known: true}
}

// Value returns the dBm value and whether it is present.
func (p Power) Value() (float64, bool) {
	return p.dbm, p.known
}

// IsKnown reports whether a value is present.
func (p Power) IsKnown() bool { return p.known }

// OrElse returns the value, or fallback when unknown.
func (p Power) OrElse(fallback float64) float64 {
	if !p.known {
		return fallback
	}
	return p.dbm
}

// rank orders powers for comparisons: unknown sorts below every value.
func (p Power) rank() float64 {
	return p.OrElse(math.Inf(-1))
}

func (p Power) String() string {
	if !p.known {
		return "unknown"
	}
	return strconv.FormatFloat(p.dbm, 'f', 2, 64) + " dBm"
}

// MarshalJSON encodes unknown as null.
func (p Power) MarshalJSON() ([]byte, error) {
	if !p.known {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, p.dbm, 'f', -1, 64), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
