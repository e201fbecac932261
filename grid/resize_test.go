package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/fdtd3d/model"
)

func fillOwned(g *Grid) {
	g.AdvanceTimeStep(func(c model.GridCoord, p *model.FieldPoint) {
		p.Cur = complex(float64(c.Get(0)), float64(c.Get(1)))
	})
}

func TestResizeShrinkAndGrow(t *testing.T) {
	grids := newGrids(t, 2, xy(10, 3), xy(2, 1), 1)
	left, right := grids[0], grids[1]
	fillOwned(left)
	fillOwned(right)

	// right takes over [3, 5) from left
	moved := left.ExtractSlabs(model.Right, 2)
	require.Len(t, moved, left.LayerCells(2)*model.PointFloats)

	left.Resize(model.NewRange(xy(0, 0), xy(3, 3)), nil, nil)
	right.Resize(model.NewRange(xy(3, 0), xy(10, 3)), moved, nil)

	for _, g := range grids {
		g.OwnedRange().Each(func(c model.GridCoord) {
			assert.Equal(t, complex(float64(c.Get(0)), float64(c.Get(1))), g.Get(c).Cur, c.String())
		})
	}
	assert.Equal(t, 9, right.Subdomain().Slabs())
	assert.Equal(t, 5, left.Subdomain().Slabs())
	assert.True(t, right.HaloStale())

	// and hands [3, 6) back to left
	back := right.ExtractSlabs(model.Left, 3)
	right.Resize(model.NewRange(xy(6, 0), xy(10, 3)), nil, nil)
	left.Resize(model.NewRange(xy(0, 0), xy(6, 3)), nil, back)
	for _, g := range grids {
		g.OwnedRange().Each(func(c model.GridCoord) {
			assert.Equal(t, complex(float64(c.Get(0)), float64(c.Get(1))), g.Get(c).Cur, c.String())
		})
	}
}

func TestResizeMisuse(t *testing.T) {
	g := newGrids(t, 2, xy(10, 3), xy(2, 1), 1)[0]
	assert.Panics(t, func() { g.ExtractSlabs(model.Up, 1) })
	assert.Panics(t, func() { g.ExtractSlabs(model.Right, 5) })
	assert.Panics(t, func() { g.Resize(model.NewRange(xy(0, 0), xy(5, 2)), nil, nil) })
	assert.Panics(t, func() { g.Resize(model.NewRange(xy(5, 0), xy(8, 3)), nil, nil) })
	assert.Panics(t, func() { g.Resize(model.NewRange(xy(0, 0), xy(6, 3)), nil, []float64{1}) })
}
