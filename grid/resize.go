package grid

import (
	"fmt"

	"github.com/EMinsight/fdtd3d/model"
)

// LayerCells is the number of owned cells in depth layers across the slab axis.
func (g *Grid) LayerCells(depth int32) int {
	n := int(depth)
	for i := 0; i < g.sub.Owned.Start.Dims(); i++ {
		if i != g.sub.Axis {
			n *= int(g.sub.Owned.End.Get(i) - g.sub.Owned.Start.Get(i))
		}
	}
	return n
}

// ExtractSlabs flattens the depth outermost owned layers on face dir, which must lie
// across the slab axis.
func (g *Grid) ExtractSlabs(dir model.Direction, depth int32) []float64 {
	g.checkSlabFace(dir)
	extent := g.sub.Owned.End.Get(g.sub.Axis) - g.sub.Owned.Start.Get(g.sub.Axis)
	if depth < 1 || depth >= extent {
		panic(fmt.Sprintf("grid %s: extracting %d of %d layers", g.name, depth, extent))
	}
	return g.pack(g.sub.Face(dir, depth, true))
}

func (g *Grid) checkSlabFace(dir model.Direction) {
	if g.sub.Owned.Start.IndexOf(dir.Axis()) != g.sub.Axis {
		panic(fmt.Sprintf("grid %s: face %s is not across the slab axis", g.name, dir))
	}
}

// Resize moves the owned box to owned, which may differ from the current one only along
// the slab axis and must overlap it. Layers given up are dropped; layers taken over are
// filled from low (below the old start) and high (above the old end), each flattened in
// ExtractSlabs order. The halo is left stale.
func (g *Grid) Resize(owned model.Range, low, high []float64) {
	a, old := g.sub.Axis, g.sub.Owned
	for i := 0; i < old.Start.Dims(); i++ {
		if i == a {
			continue
		}
		if owned.Start.Get(i) != old.Start.Get(i) || owned.End.Get(i) != old.End.Get(i) {
			panic(fmt.Sprintf("grid %s: resize %v to %v changes a fixed axis", g.name, old, owned))
		}
	}
	os, oe := old.Start.Get(a), old.End.Get(a)
	ns, ne := owned.Start.Get(a), owned.End.Get(a)
	if ns >= ne || ns >= oe || ne <= os {
		panic(fmt.Sprintf("grid %s: resize %v to %v keeps no layer", g.name, old, owned))
	}

	h := g.sub.Halo
	g.dropSlabs(false, int(h+max(0, ns-os)))
	g.insertSlabs(false, int(h+max(0, os-ns)))
	g.dropSlabs(true, int(h+max(0, oe-ne)))
	g.insertSlabs(true, int(h+max(0, ne-oe)))
	g.sub.Owned = owned

	if ns < os {
		g.unpack(owned.WithAxis(a, ns, os), low)
	} else if len(low) > 0 {
		panic(fmt.Sprintf("grid %s: %d values for no gained low layer", g.name, len(low)))
	}
	if ne > oe {
		g.unpack(owned.WithAxis(a, oe, ne), high)
	} else if len(high) > 0 {
		panic(fmt.Sprintf("grid %s: %d values for no gained high layer", g.name, len(high)))
	}
	g.haloStale.Store(true)
}

// dropSlabs removes n slabs from the low (high=false) or high end of storage.
func (g *Grid) dropSlabs(high bool, n int) {
	for i := 0; i < n; i++ {
		if high {
			g.slabs.RemoveLast()
		} else {
			g.slabs.RemoveFirst()
		}
	}
}

// insertSlabs adds n zeroed slabs at the low or high end of storage.
func (g *Grid) insertSlabs(high bool, n int) {
	l := g.sub.SlabLen()
	for i := 0; i < n; i++ {
		slab := make([]model.FieldPoint, l)
		if high {
			g.slabs.AddLast(slab)
		} else {
			g.slabs.AddFirst(slab)
		}
	}
}
