package layout

import (
	"fmt"
	"math"

	"github.com/EMinsight/fdtd3d/model"
)

// Project returns component t of an incident plane wave whose auxiliary 1D grid holds
// value v (E for electric components, H for magnetic ones). ok is false when t has no
// projection in the layout's scheme.
func (l *YeeLayout) Project(t model.GridType, v model.FieldValue) (out model.FieldValue, ok bool) {
	b := t.Base()
	s1, c1 := math.Sincos(l.angles.Theta)
	s2, c2 := math.Sincos(l.angles.Phi)
	s3, c3 := math.Sincos(l.angles.Psi)
	scale := func(f float64) model.FieldValue { return v * complex(f, 0) }

	switch l.scheme {
	case model.Dim1ExHy:
		switch b {
		case model.Ex:
			return -v, true
		case model.Hy:
			return -v, true
		}
	case model.Dim1ExHz:
		switch b {
		case model.Ex:
			return v, true
		case model.Hz:
			return -v, true
		}
	case model.Dim1EyHx:
		switch b {
		case model.Ey:
			return -v, true
		case model.Hx:
			return v, true
		}
	case model.Dim1EyHz:
		switch b {
		case model.Ey:
			return -v, true
		case model.Hz:
			return -v, true
		}
	case model.Dim1EzHx:
		switch b {
		case model.Ez:
			return v, true
		case model.Hx:
			return v, true
		}
	case model.Dim1EzHy:
		switch b {
		case model.Ez:
			return v, true
		case model.Hy:
			return -v, true
		}
	case model.Dim2TEx:
		switch b {
		case model.Ey:
			return scale(-c1), true
		case model.Ez:
			return scale(s1), true
		case model.Hx:
			return v, true
		}
	case model.Dim2TEy:
		switch b {
		case model.Ex:
			return scale(-c1), true
		case model.Ez:
			return scale(s1), true
		case model.Hy:
			return -v, true
		}
	case model.Dim2TEz:
		switch b {
		case model.Ex:
			return scale(s2), true
		case model.Ey:
			return scale(-c2), true
		case model.Hz:
			return -v, true
		}
	case model.Dim2TMx:
		switch b {
		case model.Ex:
			return v, true
		case model.Hy:
			return scale(c1), true
		case model.Hz:
			return scale(-s1), true
		}
	case model.Dim2TMy:
		switch b {
		case model.Ey:
			return -v, true
		case model.Hx:
			return scale(c1), true
		case model.Hz:
			return scale(-s1), true
		}
	case model.Dim2TMz:
		switch b {
		case model.Ez:
			return v, true
		case model.Hx:
			return scale(s2), true
		case model.Hy:
			return scale(-c2), true
		}
	case model.Dim3:
		switch b {
		case model.Ex:
			return scale(c3*s2 - s3*c1*c2), true
		case model.Ey:
			return scale(-c3*c2 - s3*c1*s2), true
		case model.Ez:
			return scale(s3 * s1), true
		case model.Hx:
			return scale(s3*s2 + c3*c1*c2), true
		case model.Hy:
			return scale(-s3*c2 + c3*c1*s2), true
		case model.Hz:
			return scale(-c3 * s1), true
		}
	}
	return 0, false
}

// MustProject is Project for callers that only ask for components of the scheme.
func (l *YeeLayout) MustProject(t model.GridType, v model.FieldValue) model.FieldValue {
	out, ok := l.Project(t, v)
	if !ok {
		panic(fmt.Sprintf("layout: no incident projection of %s in scheme %s", t, l.scheme))
	}
	return out
}
