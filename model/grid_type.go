package model

import "fmt"

// GridType identifies a material or field component grid.
type GridType uint8

const (
	Eps GridType = iota
	Mu
	Ex
	Ey
	Ez
	Hx
	Hy
	Hz
	Dx
	Dy
	Dz
	Bx
	By
	Bz
)

var gridTypeNames = [...]string{"eps", "mu", "ex", "ey", "ez", "hx", "hy", "hz", "dx", "dy", "dz", "bx", "by", "bz"}

func (t GridType) String() string {
	if int(t) < len(gridTypeNames) {
		return gridTypeNames[t]
	}
	return fmt.Sprintf("gridtype(%d)", uint8(t))
}

// Base maps D and B to the E and H components they are staggered with.
func (t GridType) Base() GridType {
	switch {
	case t >= Dx && t <= Dz:
		return Ex + (t - Dx)
	case t >= Bx && t <= Bz:
		return Hx + (t - Bx)
	}
	return t
}

func (t GridType) IsElectric() bool {
	b := t.Base()
	return b >= Ex && b <= Ez
}

func (t GridType) IsMagnetic() bool {
	b := t.Base()
	return b >= Hx && b <= Hz
}

// Component is the axis a field component points along. Material grids have none.
func (t GridType) Component() Axis {
	b := t.Base()
	switch {
	case b >= Ex && b <= Ez:
		return AxisX + Axis(b-Ex)
	case b >= Hx && b <= Hz:
		return AxisX + Axis(b-Hx)
	}
	return AxisNone
}
