// Package layout describes where every field component and material value sits on the
// staggered Yee grid, and which cells belong to the absorbing layer or the total-field /
// scattered-field border. Everything here is pure geometry: no field storage, no I/O.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/EMinsight/fdtd3d/model"
)

// ErrConfig reports an inconsistent geometry.
var ErrConfig = errors.New("layout: invalid configuration")

// fpTolerance is the slack of the float equality used by the border predicates.
const fpTolerance = 1e-9

// tfsfBand widens the total-field extent on the axes transverse to a border.
const tfsfBand = 0.1

// Angles of the incident wave, radians. Theta is measured from z, Phi from x in the xy
// plane, Psi is the polarization angle.
type Angles struct {
	Theta float64
	Phi   float64
	Psi   float64
}

// Params collects the inputs of New. Sizes and widths carry the scheme's grid axes.
type Params struct {
	Scheme    model.SchemeType
	Size      model.GridCoord
	PML       model.GridCoord
	TFSFLeft  model.GridCoord
	TFSFRight model.GridCoord
	Angles    Angles
	// DoubleMaterial doubles the resolution of the eps and mu grids.
	DoubleMaterial bool
}

// YeeLayout is the E-centred staggered layout. It is immutable after New and safe for
// concurrent use.
type YeeLayout struct {
	scheme model.SchemeType
	axes   []model.Axis

	size    model.GridCoord
	sizeEps model.GridCoord

	zeroCoordFP model.PhysCoord
	// indexed by the base grid type, Eps..Hz
	minCoordFP [model.Hz + 1]model.PhysCoord

	leftBorderPML  model.GridCoord
	rightBorderPML model.GridCoord

	leftBorderTFSF    model.GridCoord
	rightBorderTFSF   model.GridCoord
	leftBorderTFSFFP  model.PhysCoord
	rightBorderTFSFFP model.PhysCoord

	zeroIncCoordFP model.PhysCoord

	angles         Angles
	doubleMaterial bool
}

// 3D position of the first cell of every grid, in grid steps.
var minCoords3D = [model.Hz + 1][3]float64{
	model.Eps: {0.5, 0.5, 0.5},
	model.Mu:  {0.5, 0.5, 0.5},
	model.Ex:  {1, 0.5, 0.5},
	model.Ey:  {0.5, 1, 0.5},
	model.Ez:  {0.5, 0.5, 1},
	model.Hx:  {0.5, 1, 1},
	model.Hy:  {1, 0.5, 1},
	model.Hz:  {1, 1, 0.5},
}

func New(p Params) (*YeeLayout, error) {
	axes := p.Scheme.Axes()
	for name, c := range map[string]model.GridCoord{
		"size": p.Size, "pml": p.PML, "tfsf left": p.TFSFLeft, "tfsf right": p.TFSFRight,
	} {
		if c.Dims() != len(axes) || !sameAxes(c.Axes(), axes) {
			return nil, fmt.Errorf("%w: %s %v does not match the %s axes %v", ErrConfig, name, c, p.Scheme, axes)
		}
	}
	for _, a := range []float64{p.Angles.Theta, p.Angles.Phi, p.Angles.Psi} {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("%w: incident angle %v", ErrConfig, a)
		}
	}

	l := &YeeLayout{
		scheme:         p.Scheme,
		axes:           axes,
		size:           p.Size,
		sizeEps:        p.Size,
		angles:         p.Angles,
		doubleMaterial: p.DoubleMaterial,
	}
	for i := range axes {
		size, pml := p.Size.Get(i), p.PML.Get(i)
		if size <= 0 {
			return nil, fmt.Errorf("%w: size %v must be positive", ErrConfig, p.Size)
		}
		if pml < 0 || 2*int64(pml) >= int64(size) {
			return nil, fmt.Errorf("%w: pml %d on axis %s leaves no interior in %d cells", ErrConfig, pml, axes[i], size)
		}
		left, right := p.TFSFLeft.Get(i), size-p.TFSFRight.Get(i)
		if !(pml < left && left < right && right < size-pml) {
			return nil, fmt.Errorf("%w: tfsf [%d, %d) on axis %s is not inside the interior [%d, %d)",
				ErrConfig, left, right, axes[i], pml, size-pml)
		}
	}
	if p.DoubleMaterial {
		for i := range axes {
			if 2*int64(p.Size.Get(i)) > math.MaxInt32 {
				return nil, fmt.Errorf("%w: doubled material size on axis %s overflows", ErrConfig, axes[i])
			}
		}
		l.sizeEps = p.Size.Mul(2)
	}

	l.zeroCoordFP = model.Fill(model.ToPhys(p.Size), 0)
	for t := range minCoords3D {
		m := minCoords3D[t]
		l.minCoordFP[t] = model.InitAxes(m[0], m[1], m[2], axes)
	}

	l.leftBorderPML = p.PML
	l.rightBorderPML = p.Size.Sub(p.PML)
	l.leftBorderTFSF = p.TFSFLeft
	l.rightBorderTFSF = p.Size.Sub(p.TFSFRight)
	l.leftBorderTFSFFP = model.ToPhys(l.leftBorderTFSF).Add(l.zeroCoordFP)
	l.rightBorderTFSFFP = model.ToPhys(l.rightBorderTFSF).Add(l.zeroCoordFP)
	l.zeroIncCoordFP = l.incidentOrigin()
	return l, nil
}

func sameAxes(a, b []model.Axis) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (l *YeeLayout) Scheme() model.SchemeType { return l.scheme }

func (l *YeeLayout) Axes() []model.Axis { return append([]model.Axis(nil), l.axes...) }

func (l *YeeLayout) Angles() Angles { return l.angles }

func (l *YeeLayout) DoubleMaterial() bool { return l.doubleMaterial }

// Size is the number of cells of grid t. Material grids are doubled under double
// material precision.
func (l *YeeLayout) Size(t model.GridType) model.GridCoord {
	if b := t.Base(); (b == model.Eps || b == model.Mu) && l.doubleMaterial {
		return l.sizeEps
	}
	return l.size
}

func (l *YeeLayout) LeftBorderPML() model.GridCoord  { return l.leftBorderPML }
func (l *YeeLayout) RightBorderPML() model.GridCoord { return l.rightBorderPML }

func (l *YeeLayout) LeftBorderTFSF() model.GridCoord  { return l.leftBorderTFSF }
func (l *YeeLayout) RightBorderTFSF() model.GridCoord { return l.rightBorderTFSF }

// ZeroIncCoordFP is the origin of the auxiliary 1D incident-wave grid.
func (l *YeeLayout) ZeroIncCoordFP() model.PhysCoord { return l.zeroIncCoordFP }

// MinCoordFP is the position of cell 0 of grid t.
func (l *YeeLayout) MinCoordFP(t model.GridType) model.PhysCoord {
	return l.minCoordFP[l.checkType(t)]
}

// Offset is the half-step displacement of grid t relative to the material grid.
func (l *YeeLayout) Offset(t model.GridType) model.PhysCoord {
	return l.MinCoordFP(t).Sub(l.minCoordFP[model.Eps])
}

func (l *YeeLayout) checkType(t model.GridType) model.GridType {
	b := t.Base()
	if !l.scheme.HasField(b) {
		panic(fmt.Sprintf("layout: %s is not part of scheme %s", t, l.scheme))
	}
	return b
}

func (l *YeeLayout) checkCoord(c model.GridCoord) {
	if c.Dims() != len(l.axes) || !sameAxes(c.Axes(), l.axes) {
		panic(fmt.Sprintf("layout: coordinate %v does not match the %s axes %v", c, l.scheme, l.axes))
	}
}

// CoordFP is the physical position of cell c of grid t.
func (l *YeeLayout) CoordFP(t model.GridType, c model.GridCoord) model.PhysCoord {
	l.checkCoord(c)
	return model.ToPhys(c).Add(l.MinCoordFP(t))
}

// Coord is the cell of grid t at position fp. It inverts CoordFP exactly.
func (l *YeeLayout) Coord(t model.GridType, fp model.PhysCoord) model.GridCoord {
	return model.ToGrid(fp.Sub(l.MinCoordFP(t)))
}

// IsInPML reports whether cell c of grid t lies in the absorbing layer, i.e. outside
// [leftPML, rightPML) on any axis.
func (l *YeeLayout) IsInPML(t model.GridType, c model.GridCoord) bool {
	fp := l.CoordFP(t, c)
	left := model.ToPhys(l.leftBorderPML).Add(l.zeroCoordFP)
	right := model.ToPhys(l.rightBorderPML).Add(l.zeroCoordFP)
	for i := range l.axes {
		if fp.Get(i) < left.Get(i) || fp.Get(i) >= right.Get(i) {
			return true
		}
	}
	return false
}

func fpExact(a, b float64) bool {
	return math.Abs(a-b) < fpTolerance
}

// NeedTFSFUpdate reports whether cell c of grid t needs the incident-wave correction
// across the TF/SF border on face dir. Border cells are those exactly on the border and
// those half a step outside it; the cell must also lie within the total-field extent on
// every other grid axis.
func (l *YeeLayout) NeedTFSFUpdate(t model.GridType, c model.GridCoord, dir model.Direction) bool {
	b := l.checkType(t)
	axis := dir.Axis()
	if axis == b.Component() {
		return false
	}
	idx := indexOf(l.axes, axis)
	if idx < 0 {
		return false
	}
	fp := l.CoordFP(t, c)
	left, right := l.leftBorderTFSFFP, l.rightBorderTFSFFP

	v := fp.Get(idx)
	if dir.IsHigh() {
		if !fpExact(v, right.Get(idx)) && !fpExact(v, right.Get(idx)+0.5) {
			return false
		}
	} else if !fpExact(v, left.Get(idx)) && !fpExact(v, left.Get(idx)-0.5) {
		return false
	}

	for i := range l.axes {
		if i == idx {
			continue
		}
		if !(left.Get(i)-tfsfBand < fp.Get(i) && fp.Get(i) < right.Get(i)+tfsfBand) {
			return false
		}
	}
	return true
}

// TFSFFaces returns every face on which cell c of grid t needs the incident correction.
func (l *YeeLayout) TFSFFaces(t model.GridType, c model.GridCoord) model.DirectionSet {
	var s model.DirectionSet
	for _, d := range model.Directions {
		if l.NeedTFSFUpdate(t, c, d) {
			s = s.With(d)
		}
	}
	return s
}

// CircuitElementDiff is the offset, in grid t's own indices, of the neighbour on face dir
// that the curl stencil of t reads. E reads -1 on the low side and 0 on the high side,
// H reads 0 on the low side and +1 on the high side.
func (l *YeeLayout) CircuitElementDiff(t model.GridType, dir model.Direction) model.GridCoord {
	b := l.checkType(t)
	if b == model.Eps || b == model.Mu {
		panic(fmt.Sprintf("layout: material grid %s has no circuit", t))
	}
	axis := dir.Axis()
	idx := indexOf(l.axes, axis)
	if axis == b.Component() || idx < 0 {
		panic(fmt.Sprintf("layout: no %s circuit element of %s in scheme %s", dir, t, l.scheme))
	}
	var d int32
	switch {
	case b.IsElectric() && !dir.IsHigh():
		d = -1
	case b.IsMagnetic() && dir.IsHigh():
		d = 1
	}
	return model.Fill(l.size, 0).With(idx, d)
}

func indexOf(axes []model.Axis, a model.Axis) int {
	for i, x := range axes {
		if x == a {
			return i
		}
	}
	return -1
}

// incidentOrigin places the incident grid origin 2.5 steps before the TF corner the
// wave enters through.
func (l *YeeLayout) incidentOrigin() model.PhysCoord {
	k := [3]float64{
		math.Sin(l.angles.Theta) * math.Cos(l.angles.Phi),
		math.Sin(l.angles.Theta) * math.Sin(l.angles.Phi),
		math.Cos(l.angles.Theta),
	}
	var o [3]float64
	for i, a := range l.axes {
		j := a - model.AxisX
		corner := l.leftBorderTFSFFP.Get(i)
		if k[j] < 0 {
			corner = l.rightBorderTFSFFP.Get(i)
		}
		o[j] = corner - 2.5*k[j]
	}
	return model.InitAxes(o[0], o[1], o[2], l.axes)
}
