// Package grid stores one field component of one node's subdomain, halo included, and
// keeps the halo in step with the neighbouring nodes.
package grid

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/EMinsight/fdtd3d/deque"
	"github.com/EMinsight/fdtd3d/model"
	"github.com/EMinsight/fdtd3d/topology"
	"github.com/EMinsight/fdtd3d/transport"
)

var (
	ErrConfig = errors.New("grid: invalid configuration")
	// ErrCommunication reports a failed or mismatched halo exchange. It is fatal to the run.
	ErrCommunication = errors.New("grid: halo exchange failed")
)

// UpdateFunc computes the new value of one owned cell in place.
type UpdateFunc func(c model.GridCoord, p *model.FieldPoint)

// Grid is the distributed storage of one field component. Only the owning node's
// goroutine may call its methods, apart from the internal exchange goroutines.
type Grid struct {
	name   string
	global model.GridCoord
	topo   *topology.Topology
	comm   transport.Comm

	sub Subdomain
	// one slab per layer along sub.Axis, halo slabs at both ends
	slabs *deque.ArrDeque[[]model.FieldPoint]

	step      int64
	haloStale atomic.Bool
}

// New allocates the subdomain topo assigns to this node. name tags the grid's messages.
func New(name string, global model.GridCoord, halo int32, topo *topology.Topology, comm transport.Comm) (*Grid, error) {
	if !global.SameShape(topo.GlobalSize()) || !global.Equal(topo.GlobalSize()) {
		return nil, fmt.Errorf("%w: grid %s of %v on a topology over %v", ErrConfig, name, global, topo.GlobalSize())
	}
	if halo < 1 {
		return nil, fmt.Errorf("%w: halo width %d", ErrConfig, halo)
	}
	if comm.Rank() != topo.Rank() || comm.Size() != topo.NodeCount() {
		return nil, fmt.Errorf("%w: endpoint rank %d of %d for topology rank %d of %d",
			ErrConfig, comm.Rank(), comm.Size(), topo.Rank(), topo.NodeCount())
	}
	shape := topo.Shape()
	for i := 0; i < global.Dims(); i++ {
		if shape.Get(i) < 2 {
			continue
		}
		for _, n := range topo.Split(i) {
			if n < halo {
				return nil, fmt.Errorf("%w: a subdomain %d cells wide along %s cannot feed a halo of %d",
					ErrConfig, n, global.Axis(i), halo)
			}
		}
	}

	g := &Grid{
		name:   name,
		global: global,
		topo:   topo,
		comm:   comm,
		sub: Subdomain{
			Owned: topo.RangeOf(topo.Rank()),
			Halo:  halo,
			Axis:  topo.RebalanceAxis(),
		},
	}
	g.haloStale.Store(true)
	g.slabs = deque.NewArrDeque[[]model.FieldPoint](int(global.Get(g.sub.Axis) + 2*halo))
	g.insertSlabs(false, g.sub.Slabs())
	return g, nil
}

func (g *Grid) Name() string { return g.name }

func (g *Grid) GlobalSize() model.GridCoord { return g.global }

// OwnedRange is the box of cells this node updates.
func (g *Grid) OwnedRange() model.Range { return g.sub.Owned }

func (g *Grid) Subdomain() Subdomain { return g.sub }

func (g *Grid) HaloWidth() int32 { return g.sub.Halo }

// Step counts ShiftInTime calls. Halo messages are tagged with it.
func (g *Grid) Step() int64 { return g.step }

// HaloStale reports whether owned cells changed since the last exchange.
func (g *Grid) HaloStale() bool { return g.haloStale.Load() }

// Point returns the storage of cell c, owned or halo.
func (g *Grid) Point(c model.GridCoord) *model.FieldPoint {
	slab, cell := g.sub.Index(c)
	return &g.slabs.Get(slab)[cell]
}

func (g *Grid) Get(c model.GridCoord) model.FieldPoint { return *g.Point(c) }

func (g *Grid) Set(c model.GridCoord, p model.FieldPoint) { *g.Point(c) = p }

func (g *Grid) SetCur(c model.GridCoord, v model.FieldValue) { g.Point(c).Cur = v }

// AdvanceTimeStep runs update on every owned cell.
func (g *Grid) AdvanceTimeStep(update UpdateFunc) {
	g.AdvanceRange(g.sub.Owned, update)
}

// AdvanceRange runs update on the cells of r, which must be owned. Disjoint ranges may
// be advanced concurrently.
func (g *Grid) AdvanceRange(r model.Range, update UpdateFunc) {
	if !g.sub.Owned.Covers(r) {
		panic(fmt.Sprintf("grid %s: advancing %v outside owned %v", g.name, r, g.sub.Owned))
	}
	r.Each(func(c model.GridCoord) { update(c, g.Point(c)) })
	g.haloStale.Store(true)
}

// ShiftInTime moves every stored cell one time level back and counts the step.
func (g *Grid) ShiftInTime() {
	g.slabs.Traverse(func(_ int, slab *[]model.FieldPoint) {
		for i := range *slab {
			(*slab)[i].ShiftInTime()
		}
	})
	g.step++
}

func (g *Grid) pack(r model.Range) []float64 {
	buf := make([]float64, 0, r.Volume()*model.PointFloats)
	r.Each(func(c model.GridCoord) { buf = model.AppendPoint(buf, g.Get(c)) })
	return buf
}

func (g *Grid) unpack(r model.Range, vals []float64) {
	if int64(len(vals)) != r.Volume()*model.PointFloats {
		panic(fmt.Sprintf("grid %s: %d values for %d cells", g.name, len(vals), r.Volume()))
	}
	i := 0
	r.Each(func(c model.GridCoord) {
		g.Set(c, model.PointAt(vals, i))
		i++
	})
}
