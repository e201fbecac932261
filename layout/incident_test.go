package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/fdtd3d/model"
)

func lineLayout(t *testing.T, s model.SchemeType) *YeeLayout {
	a := s.Axes()[0]
	c := func(v int32) model.GridCoord { return model.Coord1(v, a) }
	l, err := New(Params{Scheme: s, Size: c(20), PML: c(2), TFSFLeft: c(5), TFSFRight: c(5)})
	require.NoError(t, err)
	return l
}

func TestProjectLine(t *testing.T) {
	cases := []struct {
		scheme model.SchemeType
		e, h   model.GridType
		se, sh float64
	}{
		{model.Dim1ExHy, model.Ex, model.Hy, -1, -1},
		{model.Dim1ExHz, model.Ex, model.Hz, 1, -1},
		{model.Dim1EyHx, model.Ey, model.Hx, -1, 1},
		{model.Dim1EyHz, model.Ey, model.Hz, -1, -1},
		{model.Dim1EzHx, model.Ez, model.Hx, 1, 1},
		{model.Dim1EzHy, model.Ez, model.Hy, 1, -1},
	}
	for _, tc := range cases {
		l := lineLayout(t, tc.scheme)
		e, ok := l.Project(tc.e, 2)
		require.True(t, ok, tc.scheme.String())
		assert.Equal(t, complex(2*tc.se, 0), e, tc.scheme.String())
		h, ok := l.Project(tc.h, 3)
		require.True(t, ok)
		assert.Equal(t, complex(3*tc.sh, 0), h, tc.scheme.String())

		other := model.Ez
		if tc.e == model.Ez {
			other = model.Ex
		}
		_, ok = l.Project(other, 1)
		assert.False(t, ok)
	}
}

func TestProjectNotApplicable(t *testing.T) {
	l := newLine(t)
	_, ok := l.Project(model.Ex, 1)
	assert.False(t, ok)
	_, ok = l.Project(model.Eps, 1)
	assert.False(t, ok)
	assert.Panics(t, func() { l.MustProject(model.Hz, 1) })
	assert.Equal(t, complex(1, 0), l.MustProject(model.Dz, 1))
}

func TestProjectPlane(t *testing.T) {
	l := newPlane(t, false)
	phi := math.Pi / 4
	hx := l.MustProject(model.Hx, 1)
	hy := l.MustProject(model.Hy, 1)
	assert.InDelta(t, math.Sin(phi), real(hx), 1e-12)
	assert.InDelta(t, -math.Cos(phi), real(hy), 1e-12)
	assert.Equal(t, complex(1, 0), l.MustProject(model.Ez, 1))
}

func TestProjectVolume(t *testing.T) {
	c := model.Coord3[int32]
	for _, a := range []Angles{{Theta: math.Pi / 2}, {Theta: 0.3, Phi: 1.1, Psi: 2.0}, {Theta: 2.5, Phi: 4, Psi: 0.7}} {
		l, err := New(Params{
			Scheme: model.Dim3, Size: c(20, 20, 20), PML: c(2, 2, 2),
			TFSFLeft: c(5, 5, 5), TFSFRight: c(5, 5, 5), Angles: a,
		})
		require.NoError(t, err)

		var e, h [3]float64
		for i := 0; i < 3; i++ {
			e[i] = real(l.MustProject(model.Ex+model.GridType(i), 1))
			h[i] = real(l.MustProject(model.Hx+model.GridType(i), 1))
		}
		k := [3]float64{
			math.Sin(a.Theta) * math.Cos(a.Phi),
			math.Sin(a.Theta) * math.Sin(a.Phi),
			math.Cos(a.Theta),
		}
		dot := func(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
		assert.InDelta(t, 1, dot(e, e), 1e-12)
		assert.InDelta(t, 1, dot(h, h), 1e-12)
		assert.InDelta(t, 0, dot(e, h), 1e-12)
		assert.InDelta(t, 0, dot(e, k), 1e-12)
		assert.InDelta(t, 0, dot(h, k), 1e-12)
	}
}
