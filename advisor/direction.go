package advisor

import (
	"fmt"
	"strings"
)

// Direction is a one-cell step on the grid. Up is toward higher
// elevation (lower row index); Right is toward higher azimuth.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionDown
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDirection converts a name into a Direction.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "up", "u":
		return DirectionUp, nil
	case "down", "d":
		return DirectionDown, nil
	case "left", "l":
		return DirectionLeft, nil
	case "right", "r":
		return DirectionRight, nil
	case "none", "":
		return DirectionNone, nil
	default:
		return DirectionNone, fmt.Errorf("unknown direction %q", value)
	}
}

// delta returns the row/column step for d.
func (d Direction) delta() (dRow, dCol int) {
	switch d {
	case DirectionUp:
		return -1, 0
	case DirectionDown:
		return 1, 0
	case DirectionLeft:
		return 0, -1
	case DirectionRight:
		return 0, 1
	default:
		return 0, 0
	}
}

// Cell addresses one grid position.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Offset returns the neighbouring cell in direction d. The result may lie
// outside the grid.
func (c Cell) Offset(d Direction) Cell {
	dr, dc := d.delta()
	return Cell{Row: c.Row + dr, Col: c.Col + dc}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}
