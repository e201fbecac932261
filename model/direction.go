package model

import "fmt"

// Direction names one face of a box.
type Direction uint8

const (
	Left Direction = iota
	Right
	Down
	Up
	Back
	Front
)

// Directions lists every face in tag order.
var Directions = [...]Direction{Left, Right, Down, Up, Back, Front}

// DirectionOf returns the low or high face along a.
func DirectionOf(a Axis, high bool) Direction {
	if a == AxisNone {
		panic("direction: axis none")
	}
	d := Direction(2 * (a - AxisX))
	if high {
		d++
	}
	return d
}

func (d Direction) Axis() Axis { return AxisX + Axis(d/2) }

// IsHigh reports whether d faces towards increasing coordinates.
func (d Direction) IsHigh() bool { return d%2 == 1 }

func (d Direction) Opposite() Direction { return d ^ 1 }

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Down:
		return "down"
	case Up:
		return "up"
	case Back:
		return "back"
	case Front:
		return "front"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// DirectionSet is a bit set of faces.
type DirectionSet uint8

func (s DirectionSet) Has(d Direction) bool { return s&(1<<d) != 0 }

func (s DirectionSet) With(d Direction) DirectionSet { return s | 1<<d }
