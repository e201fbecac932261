package layout

import "github.com/EMinsight/fdtd3d/model"

// materialStencil lists, for one field component, the 3D shifts from the field position
// to the surrounding material positions, and for double material precision the fine-grid
// offsets added to each doubled coarse index.
type materialStencil struct {
	shifts [][3]float64
	fine   [][][3]int32
}

var materialStencils = map[model.GridType]materialStencil{
	model.Ex: {
		shifts: [][3]float64{{-0.5, 0, 0}, {0.5, 0, 0}},
		fine: [][][3]int32{
			{{1, 0, 0}, {1, 1, 0}, {1, 0, 1}, {1, 1, 1}},
			{{0, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 1, 1}},
		},
	},
	model.Ey: {
		shifts: [][3]float64{{0, -0.5, 0}, {0, 0.5, 0}},
		fine: [][][3]int32{
			{{0, 1, 0}, {1, 1, 0}, {0, 1, 1}, {1, 1, 1}},
			{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {1, 0, 1}},
		},
	},
	model.Ez: {
		shifts: [][3]float64{{0, 0, -0.5}, {0, 0, 0.5}},
		fine: [][][3]int32{
			{{0, 0, 1}, {0, 1, 1}, {1, 0, 1}, {1, 1, 1}},
			{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0}},
		},
	},
	model.Hx: {
		shifts: [][3]float64{{0, -0.5, -0.5}, {0, -0.5, 0.5}, {0, 0.5, -0.5}, {0, 0.5, 0.5}},
		fine: [][][3]int32{
			{{0, 1, 1}, {1, 1, 1}},
			{{0, 1, 0}, {1, 1, 0}},
			{{0, 0, 1}, {1, 0, 1}},
			{{0, 0, 0}, {1, 0, 0}},
		},
	},
	model.Hy: {
		shifts: [][3]float64{{-0.5, 0, -0.5}, {-0.5, 0, 0.5}, {0.5, 0, -0.5}, {0.5, 0, 0.5}},
		fine: [][][3]int32{
			{{1, 0, 1}, {1, 1, 1}},
			{{1, 0, 0}, {1, 1, 0}},
			{{0, 0, 1}, {0, 1, 1}},
			{{0, 0, 0}, {0, 1, 0}},
		},
	},
	model.Hz: {
		shifts: [][3]float64{{-0.5, -0.5, 0}, {-0.5, 0.5, 0}, {0.5, -0.5, 0}, {0.5, 0.5, 0}},
		fine: [][][3]int32{
			{{1, 1, 0}, {1, 1, 1}},
			{{1, 0, 0}, {1, 0, 1}},
			{{0, 1, 0}, {0, 1, 1}},
			{{0, 0, 0}, {0, 0, 1}},
		},
	},
}

// MaterialCoords returns the material grid cells averaged into the coefficient of cell c
// of field grid t: 2 for E and 4 for H components, 8 under double material precision.
// Shifts along axes outside the scheme collapse, so lower dimensional schemes may repeat
// a cell.
func (l *YeeLayout) MaterialCoords(t model.GridType, c model.GridCoord) []model.GridCoord {
	b := l.checkType(t)
	st, ok := materialStencils[b]
	if !ok {
		panic("layout: material grids have no material neighbours")
	}
	fp := l.CoordFP(t, c)

	n := len(st.shifts)
	if l.doubleMaterial {
		n = 8
	}
	out := make([]model.GridCoord, 0, n)
	for i, s := range st.shifts {
		shift := model.InitAxes(s[0], s[1], s[2], l.axes)
		eps := l.Coord(model.Eps, fp.Add(shift))
		if !l.doubleMaterial {
			out = append(out, eps)
			continue
		}
		for _, f := range st.fine[i] {
			out = append(out, eps.Mul(2).Add(model.InitAxes(f[0], f[1], f[2], l.axes)))
		}
	}
	return out
}
