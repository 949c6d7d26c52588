package domain

import (
	"fmt"
	"strings"
)

// Corner identifies one of the four arena corners a goal can be placed in
type Corner string

const (
	CornerNE Corner = "NE"
	CornerNW Corner = "NW"
	CornerSE Corner = "SE"
	CornerSW Corner = "SW"
)

// AllCorners is the default batch order
var AllCorners = []Corner{CornerNE, CornerNW, CornerSE, CornerSW}

// cornerHeadings maps each corner to the heading that points at it from the
// arena centre.
var cornerHeadings = map[Corner]float64{
	CornerNE: 45,
	CornerNW: 315,
	CornerSE: 135,
	CornerSW: 225,
}

// ParseCorner parses a corner name case-insensitively
func ParseCorner(s string) (Corner, error) {
	c := Corner(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := cornerHeadings[c]; !ok {
		return "", fmt.Errorf("unknown corner %q (use NE, NW, SE, SW)", s)
	}
	return c, nil
}

// Valid reports whether c is one of the four known corners
func (c Corner) Valid() bool {
	_, ok := cornerHeadings[c]
	return ok
}

// TargetHeading returns the fixed heading toward the corner.
// Unknown corners fall back to the NE heading.
func (c Corner) TargetHeading() float64 {
	if h, ok := cornerHeadings[c]; ok {
		return h
	}
	return cornerHeadings[CornerNE]
}

// Position is a point in simulator world coordinates
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
