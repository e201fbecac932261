package grid

import (
	"fmt"

	"github.com/EMinsight/fdtd3d/model"
)

// Subdomain maps global cell coordinates of one node's box to storage indices. Storage
// covers Owned grown by Halo on every axis, split into slabs along component Axis.
type Subdomain struct {
	Owned model.Range
	Halo  int32
	// Axis is the component index slabs are cut across.
	Axis int
}

// Bounds is the stored box: owned cells plus halo.
func (s Subdomain) Bounds() model.Range { return s.Owned.Grow(s.Halo) }

func (s Subdomain) Contains(c model.GridCoord) bool { return s.Bounds().Contains(c) }

// Slabs is the number of stored slabs.
func (s Subdomain) Slabs() int {
	return int(s.Owned.End.Get(s.Axis) - s.Owned.Start.Get(s.Axis) + 2*s.Halo)
}

// SlabLen is the number of cells in one slab.
func (s Subdomain) SlabLen() int {
	b := s.Bounds()
	n := 1
	for i := 0; i < b.Start.Dims(); i++ {
		if i != s.Axis {
			n *= int(b.End.Get(i) - b.Start.Get(i))
		}
	}
	return n
}

// Index returns the slab and the position inside it of global cell c.
func (s Subdomain) Index(c model.GridCoord) (slab, cell int) {
	b := s.Bounds()
	if !b.Contains(c) {
		panic(fmt.Sprintf("grid: cell %v outside stored box %v", c, b))
	}
	slab = int(c.Get(s.Axis) - b.Start.Get(s.Axis))
	for i := 0; i < c.Dims(); i++ {
		if i == s.Axis {
			continue
		}
		cell = cell*int(b.End.Get(i)-b.Start.Get(i)) + int(c.Get(i)-b.Start.Get(i))
	}
	return slab, cell
}

// Face is the range of depth layers adjacent to face dir. Inside is true for owned
// layers, false for the halo layers beyond the face. Only the faced axis is trimmed,
// the other axes keep their owned extent.
func (s Subdomain) Face(dir model.Direction, depth int32, inside bool) model.Range {
	i := s.Owned.Start.IndexOf(dir.Axis())
	if i < 0 {
		panic(fmt.Sprintf("grid: face %s on a grid with axes %v", dir, s.Owned.Start.Axes()))
	}
	lo, hi := s.Owned.Start.Get(i), s.Owned.End.Get(i)
	switch {
	case !dir.IsHigh() && inside:
		return s.Owned.WithAxis(i, lo, lo+depth)
	case !dir.IsHigh():
		return s.Owned.WithAxis(i, lo-depth, lo)
	case inside:
		return s.Owned.WithAxis(i, hi-depth, hi)
	default:
		return s.Owned.WithAxis(i, hi, hi+depth)
	}
}
