package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeEachVisitsEveryCellOnce(t *testing.T) {
	r := NewRange(Coord3[int32](1, 0, 2), Coord3[int32](3, 2, 5))
	seen := map[GridCoord]int{}
	r.Each(func(c GridCoord) { seen[c]++ })

	assert.Len(t, seen, int(r.Volume()))
	for c, n := range seen {
		assert.Equal(t, 1, n, c.String())
		assert.True(t, r.Contains(c))
	}
}

func TestRangeIntersect(t *testing.T) {
	a := NewRange(Coord1[int32](0, AxisX), Coord1[int32](5, AxisX))
	b := NewRange(Coord1[int32](3, AxisX), Coord1[int32](9, AxisX))

	i, ok := a.Intersect(b)
	assert.True(t, ok)
	assert.Equal(t, int64(2), i.Volume())

	_, ok = a.Intersect(NewRange(Coord1[int32](5, AxisX), Coord1[int32](6, AxisX)))
	assert.False(t, ok)
}

func TestTiles(t *testing.T) {
	global := Coord2[int32](10, 4, AxisX, AxisY)
	split := func(at int32) []Range {
		return []Range{
			NewRange(Coord2[int32](0, 0, AxisX, AxisY), Coord2[int32](at, 4, AxisX, AxisY)),
			NewRange(Coord2[int32](at, 0, AxisX, AxisY), Coord2[int32](10, 4, AxisX, AxisY)),
		}
	}
	assert.NoError(t, Tiles(split(5), global))
	assert.NoError(t, Tiles(split(2), global))

	gap := split(5)
	gap[1].Start = gap[1].Start.With(0, 6)
	assert.Error(t, Tiles(gap, global))

	overlap := split(5)
	overlap[1].Start = overlap[1].Start.With(0, 4)
	assert.Error(t, Tiles(overlap, global))
}
