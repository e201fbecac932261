package model

import (
	"fmt"
	"strings"
)

// SchemeType selects the dimensionality and the set of field components simulated.
type SchemeType uint8

const (
	Dim1ExHy SchemeType = iota
	Dim1ExHz
	Dim1EyHx
	Dim1EyHz
	Dim1EzHx
	Dim1EzHy
	Dim2TEx
	Dim2TEy
	Dim2TEz
	Dim2TMx
	Dim2TMy
	Dim2TMz
	Dim3
)

type schemeInfo struct {
	name   string
	axes   []Axis
	fields []GridType
}

var schemes = [...]schemeInfo{
	Dim1ExHy: {"1d-exhy", []Axis{AxisZ}, []GridType{Ex, Hy}},
	Dim1ExHz: {"1d-exhz", []Axis{AxisY}, []GridType{Ex, Hz}},
	Dim1EyHx: {"1d-eyhx", []Axis{AxisZ}, []GridType{Ey, Hx}},
	Dim1EyHz: {"1d-eyhz", []Axis{AxisX}, []GridType{Ey, Hz}},
	Dim1EzHx: {"1d-ezhx", []Axis{AxisY}, []GridType{Ez, Hx}},
	Dim1EzHy: {"1d-ezhy", []Axis{AxisX}, []GridType{Ez, Hy}},
	Dim2TEx:  {"2d-tex", []Axis{AxisY, AxisZ}, []GridType{Ey, Ez, Hx}},
	Dim2TEy:  {"2d-tey", []Axis{AxisX, AxisZ}, []GridType{Ex, Ez, Hy}},
	Dim2TEz:  {"2d-tez", []Axis{AxisX, AxisY}, []GridType{Ex, Ey, Hz}},
	Dim2TMx:  {"2d-tmx", []Axis{AxisY, AxisZ}, []GridType{Ex, Hy, Hz}},
	Dim2TMy:  {"2d-tmy", []Axis{AxisX, AxisZ}, []GridType{Ey, Hx, Hz}},
	Dim2TMz:  {"2d-tmz", []Axis{AxisX, AxisY}, []GridType{Ez, Hx, Hy}},
	Dim3:     {"3d", []Axis{AxisX, AxisY, AxisZ}, []GridType{Ex, Ey, Ez, Hx, Hy, Hz}},
}

// ParseSchemeType accepts the command line names, e.g. "1d-ezhy", "2d-tmz", "3d".
func ParseSchemeType(s string) (SchemeType, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "--")
	for i, info := range schemes {
		if info.name == s {
			return SchemeType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scheme %q", s)
}

func (s SchemeType) info() schemeInfo {
	if int(s) >= len(schemes) {
		panic(fmt.Sprintf("scheme: unknown type %d", uint8(s)))
	}
	return schemes[s]
}

func (s SchemeType) String() string { return s.info().name }

func (s SchemeType) Dimension() int { return len(s.info().axes) }

// Axes returns the grid axes of the scheme in component order.
func (s SchemeType) Axes() []Axis {
	a := s.info().axes
	out := make([]Axis, len(a))
	copy(out, a)
	return out
}

// Fields returns the E and H components the scheme updates.
func (s SchemeType) Fields() []GridType {
	f := s.info().fields
	out := make([]GridType, len(f))
	copy(out, f)
	return out
}

// HasField reports whether t, or the component it is staggered with, is part of the scheme.
// Material grids belong to every scheme.
func (s SchemeType) HasField(t GridType) bool {
	b := t.Base()
	if b == Eps || b == Mu {
		return true
	}
	for _, f := range s.info().fields {
		if f == b {
			return true
		}
	}
	return false
}
