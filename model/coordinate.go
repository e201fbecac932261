package model

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"
)

// Axis names the physical axis a coordinate component is measured along.
type Axis uint8

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "none"
}

// ParseAxis accepts "x", "y" or "z" in any case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return AxisNone, fmt.Errorf("unknown axis %q", s)
}

// Scalar is the component type of a coordinate.
type Scalar interface {
	constraints.Integer | constraints.Float
}

// Coord is a 1, 2 or 3 component coordinate. Every component carries the axis it
// belongs to, so a 1D coordinate along z and one along x are not interchangeable.
type Coord[T Scalar] struct {
	v    [3]T
	axes [3]Axis
	dims int
}

// GridCoord is an integer cell index.
type GridCoord = Coord[int32]

// PhysCoord is a position in units of the grid step.
type PhysCoord = Coord[float64]

func Coord1[T Scalar](a T, ax Axis) Coord[T] {
	return Coord[T]{v: [3]T{a}, axes: [3]Axis{ax}, dims: 1}
}

func Coord2[T Scalar](a, b T, ax1, ax2 Axis) Coord[T] {
	return Coord[T]{v: [3]T{a, b}, axes: [3]Axis{ax1, ax2}, dims: 2}
}

func Coord3[T Scalar](a, b, c T) Coord[T] {
	return Coord[T]{v: [3]T{a, b, c}, axes: [3]Axis{AxisX, AxisY, AxisZ}, dims: 3}
}

// NewCoord builds a coordinate from parallel value and axis lists.
func NewCoord[T Scalar](vals []T, axes []Axis) Coord[T] {
	if len(vals) != len(axes) || len(vals) == 0 || len(vals) > 3 {
		panic(fmt.Sprintf("coordinate: %d values for %d axes", len(vals), len(axes)))
	}
	var c Coord[T]
	c.dims = len(vals)
	copy(c.v[:], vals)
	copy(c.axes[:], axes)
	return c
}

// InitAxes picks the x, y, z components named by axes.
func InitAxes[T Scalar](x, y, z T, axes []Axis) Coord[T] {
	xyz := [3]T{x, y, z}
	vals := make([]T, len(axes))
	for i, a := range axes {
		if a == AxisNone {
			panic("coordinate: axis none has no component")
		}
		vals[i] = xyz[a-AxisX]
	}
	return NewCoord(vals, axes)
}

// Fill returns a coordinate shaped like c with every component set to v.
func Fill[T Scalar](shape Coord[T], v T) Coord[T] {
	c := shape
	for i := 0; i < c.dims; i++ {
		c.v[i] = v
	}
	return c
}

func (c Coord[T]) Dims() int { return c.dims }

func (c Coord[T]) Get(i int) T {
	if i < 0 || i >= c.dims {
		panic(fmt.Sprintf("coordinate: component %d of %d", i, c.dims))
	}
	return c.v[i]
}

func (c Coord[T]) Axis(i int) Axis {
	if i < 0 || i >= c.dims {
		panic(fmt.Sprintf("coordinate: component %d of %d", i, c.dims))
	}
	return c.axes[i]
}

// Axes returns a copy of the axis tags.
func (c Coord[T]) Axes() []Axis {
	out := make([]Axis, c.dims)
	copy(out, c.axes[:c.dims])
	return out
}

// IndexOf returns the component index that carries axis a, or -1.
func (c Coord[T]) IndexOf(a Axis) int {
	for i := 0; i < c.dims; i++ {
		if c.axes[i] == a {
			return i
		}
	}
	return -1
}

// GetAxis returns the component measured along a.
func (c Coord[T]) GetAxis(a Axis) (T, bool) {
	i := c.IndexOf(a)
	if i < 0 {
		return 0, false
	}
	return c.v[i], true
}

// With returns a copy of c with component i replaced.
func (c Coord[T]) With(i int, v T) Coord[T] {
	if i < 0 || i >= c.dims {
		panic(fmt.Sprintf("coordinate: component %d of %d", i, c.dims))
	}
	c.v[i] = v
	return c
}

func (c Coord[T]) mustMatch(o Coord[T]) {
	if c.dims != o.dims || c.axes != o.axes {
		panic(fmt.Sprintf("coordinate: mixing %v with %v", c.axes[:c.dims], o.axes[:o.dims]))
	}
}

func (c Coord[T]) Add(o Coord[T]) Coord[T] {
	c.mustMatch(o)
	for i := 0; i < c.dims; i++ {
		c.v[i] += o.v[i]
	}
	return c
}

func (c Coord[T]) Sub(o Coord[T]) Coord[T] {
	c.mustMatch(o)
	for i := 0; i < c.dims; i++ {
		c.v[i] -= o.v[i]
	}
	return c
}

func (c Coord[T]) Mul(s T) Coord[T] {
	for i := 0; i < c.dims; i++ {
		c.v[i] *= s
	}
	return c
}

func (c Coord[T]) Min(o Coord[T]) Coord[T] {
	c.mustMatch(o)
	for i := 0; i < c.dims; i++ {
		c.v[i] = min(c.v[i], o.v[i])
	}
	return c
}

func (c Coord[T]) Max(o Coord[T]) Coord[T] {
	c.mustMatch(o)
	for i := 0; i < c.dims; i++ {
		c.v[i] = max(c.v[i], o.v[i])
	}
	return c
}

// Less reports whether every component of c is strictly below o.
func (c Coord[T]) Less(o Coord[T]) bool {
	c.mustMatch(o)
	for i := 0; i < c.dims; i++ {
		if c.v[i] >= o.v[i] {
			return false
		}
	}
	return true
}

// LessEq reports whether every component of c is at most o.
func (c Coord[T]) LessEq(o Coord[T]) bool {
	c.mustMatch(o)
	for i := 0; i < c.dims; i++ {
		if c.v[i] > o.v[i] {
			return false
		}
	}
	return true
}

func (c Coord[T]) Equal(o Coord[T]) bool {
	c.mustMatch(o)
	return c.v == o.v
}

// SameShape reports whether c and o carry the same axis tags.
func (c Coord[T]) SameShape(o Coord[T]) bool {
	return c.dims == o.dims && c.axes == o.axes
}

// Volume is the product of the components.
func (c Coord[T]) Volume() int64 {
	v := int64(1)
	for i := 0; i < c.dims; i++ {
		v *= int64(c.v[i])
	}
	return v
}

func (c Coord[T]) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < c.dims; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", c.axes[i], c.v[i])
	}
	b.WriteByte(')')
	return b.String()
}

// ToPhys converts a grid index to a position.
func ToPhys(c GridCoord) PhysCoord {
	var p PhysCoord
	p.dims, p.axes = c.dims, c.axes
	for i := 0; i < c.dims; i++ {
		p.v[i] = float64(c.v[i])
	}
	return p
}

// ToGrid rounds a position toward negative infinity.
func ToGrid(p PhysCoord) GridCoord {
	var c GridCoord
	c.dims, c.axes = p.dims, p.axes
	for i := 0; i < p.dims; i++ {
		c.v[i] = int32(math.Floor(p.v[i]))
	}
	return c
}
