package calculator

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/fdtd3d/grid"
	"github.com/EMinsight/fdtd3d/model"
	"github.com/EMinsight/fdtd3d/topology"
	"github.com/EMinsight/fdtd3d/transport"
)

func TestSplitTasks(t *testing.T) {
	cases := []struct {
		first, last int32
		workers     int
		want        [][2]int32
	}{
		{0, 10, 4, [][2]int32{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}, {7, 8}, {8, 9}, {9, 10}}},
		{0, 9, 2, [][2]int32{{0, 2}, {2, 4}, {4, 6}, {6, 8}, {8, 9}}},
		{3, 6, 4, [][2]int32{{3, 4}, {4, 5}, {5, 6}}},
		{0, 4, 4, [][2]int32{{0, 1}, {1, 2}, {2, 3}, {3, 4}}},
		{0, 7, 1, [][2]int32{{0, 3}, {3, 7}}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, splitTasks(c.first, c.last, c.workers), "[%d,%d) on %d", c.first, c.last, c.workers)
	}
}

func TestExecutorCoversOwnedRange(t *testing.T) {
	global := model.Coord3[int32](13, 5, 4)
	topo, err := topology.Build(0, 1, global, model.GridCoord{})
	require.NoError(t, err)
	g, err := grid.New("ex", global, 1, topo, transport.NewLocalMesh(1)[0])
	require.NoError(t, err)

	e := newExecutor(3)
	e.run()
	defer e.stop()

	var calls atomic.Int64
	e.dispatchTask(g, g.OwnedRange(), 0, func(c model.GridCoord, p *model.FieldPoint) {
		calls.Add(1)
		p.Cur += complex(float64(c.Get(0)*100+c.Get(1)*10+c.Get(2)), 0)
	})

	assert.Equal(t, global.Volume(), calls.Load())
	g.OwnedRange().Each(func(c model.GridCoord) {
		assert.Equal(t, complex(float64(c.Get(0)*100+c.Get(1)*10+c.Get(2)), 0), g.Get(c).Cur, "%v", c)
	})
}

func TestExecutorEmptyRange(t *testing.T) {
	e := newExecutor(2)
	e.run()
	defer e.stop()
	r := model.NewRange(model.Coord1[int32](4, model.AxisX), model.Coord1[int32](4, model.AxisX))
	e.dispatchTask(nil, r, 0, nil)
}
