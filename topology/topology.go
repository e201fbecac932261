// Package topology arranges the nodes of a run into a process mesh over the global grid
// and keeps the per-node load clocks the rebalancer works from.
package topology

import (
	"context"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/EMinsight/fdtd3d/model"
	"github.com/EMinsight/fdtd3d/transport"
)

var ErrConfig = errors.New("topology: invalid configuration")

type NodeState uint8

const (
	Active NodeState = iota
	// Inactive nodes keep their subdomain and take part in every exchange but skip
	// the field update.
	Inactive
)

func (s NodeState) String() string {
	if s == Inactive {
		return "inactive"
	}
	return "active"
}

// Topology is one node's view of the process mesh. Every node holds an identical copy
// apart from its own rank and its live clock.
type Topology struct {
	rank      int
	nodeCount int

	global model.GridCoord
	shape  model.GridCoord
	pos    model.GridCoord

	// splits[i] holds the extent of every mesh position along axis i
	splits [][]int32
	// rebalanceAxis is the component index boundaries move along
	rebalanceAxis int

	states []NodeState

	clocks
}

// Build lays nodeCount nodes over a grid of size global. requested is used when it
// multiplies out to nodeCount and no axis gets more nodes than cells; otherwise the
// factorization with the least halo area is chosen.
func Build(rank, nodeCount int, global, requested model.GridCoord) (*Topology, error) {
	if nodeCount < 1 || rank < 0 || rank >= nodeCount {
		return nil, fmt.Errorf("%w: rank %d of %d nodes", ErrConfig, rank, nodeCount)
	}
	for i := 0; i < global.Dims(); i++ {
		if global.Get(i) <= 0 {
			return nil, fmt.Errorf("%w: grid size %v", ErrConfig, global)
		}
	}

	shape, ok := model.GridCoord{}, false
	if requested.SameShape(global) && fits(requested, global) && requested.Volume() == int64(nodeCount) {
		shape, ok = requested, true
	}
	if !ok {
		shape, ok = bestShape(nodeCount, global)
		if !ok {
			return nil, fmt.Errorf("%w: %d nodes do not fit a grid of %v", ErrConfig, nodeCount, global)
		}
		if requested.Dims() > 0 && requested.Volume() > 0 {
			log.WithFields(log.Fields{"requested": requested.String(), "chosen": shape.String()}).Warn("requested topology unusable, using balanced one")
		}
	}

	t := &Topology{
		rank:      rank,
		nodeCount: nodeCount,
		global:    global,
		shape:     shape,
		states:    make([]NodeState, nodeCount),
		clocks:    newClocks(nodeCount),
	}
	t.pos = t.Position(rank)
	t.splits = make([][]int32, global.Dims())
	for i := range t.splits {
		t.splits[i] = EvenSplit(global.Get(i), shape.Get(i))
	}
	t.rebalanceAxis = 0
	for i := 1; i < shape.Dims(); i++ {
		if shape.Get(i) > shape.Get(t.rebalanceAxis) {
			t.rebalanceAxis = i
		}
	}

	log.WithFields(log.Fields{
		"rank":  rank,
		"nodes": nodeCount,
		"grid":  global.String(),
		"shape": shape.String(),
		"pos":   t.pos.String(),
	}).Info("topology built")
	return t, nil
}

func fits(shape, global model.GridCoord) bool {
	for i := 0; i < shape.Dims(); i++ {
		if shape.Get(i) < 1 || shape.Get(i) > global.Get(i) {
			return false
		}
	}
	return true
}

// haloArea is the number of cells on the internal faces of shape over global.
func haloArea(shape, global model.GridCoord) int64 {
	var area int64
	for i := 0; i < shape.Dims(); i++ {
		face := int64(shape.Get(i) - 1)
		for j := 0; j < shape.Dims(); j++ {
			if j != i {
				face *= int64(global.Get(j))
			}
		}
		area += face
	}
	return area
}

// bestShape enumerates the factorizations of n in x-major order and keeps the first
// one with the least halo area.
func bestShape(n int, global model.GridCoord) (model.GridCoord, bool) {
	dims := global.Dims()
	best, bestArea, found := model.GridCoord{}, int64(math.MaxInt64), false
	factors := make([]int32, dims)
	var walk func(i int, rest int)
	walk = func(i int, rest int) {
		if i == dims-1 {
			factors[i] = int32(rest)
			shape := model.NewCoord(factors, global.Axes())
			if !fits(shape, global) {
				return
			}
			if a := haloArea(shape, global); a < bestArea {
				best, bestArea, found = shape, a, true
			}
			return
		}
		for f := 1; f <= rest; f++ {
			if rest%f == 0 {
				factors[i] = int32(f)
				walk(i+1, rest/f)
			}
		}
	}
	walk(0, n)
	return best, found
}

// EvenSplit divides n cells between parts, the remainder going to the lowest parts.
func EvenSplit(n, parts int32) []int32 {
	out := make([]int32, parts)
	for i := range out {
		out[i] = n / parts
		if int32(i) < n%parts {
			out[i]++
		}
	}
	return out
}

func (t *Topology) Rank() int { return t.rank }

func (t *Topology) NodeCount() int { return t.nodeCount }

func (t *Topology) GlobalSize() model.GridCoord { return t.global }

func (t *Topology) Shape() model.GridCoord { return t.shape }

// Position returns the mesh position of rank. Ranks are laid out x-major.
func (t *Topology) Position(rank int) model.GridCoord {
	p := model.Fill(t.shape, 0)
	r := int32(rank)
	for i := 0; i < t.shape.Dims(); i++ {
		p = p.With(i, r%t.shape.Get(i))
		r /= t.shape.Get(i)
	}
	return p
}

// MyPosition is the mesh position of this node.
func (t *Topology) MyPosition() model.GridCoord { return t.pos }

// RankAt returns the rank at mesh position pos, or false when pos is off the mesh.
func (t *Topology) RankAt(pos model.GridCoord) (int, bool) {
	rank, stride := int32(0), int32(1)
	for i := 0; i < t.shape.Dims(); i++ {
		p := pos.Get(i)
		if p < 0 || p >= t.shape.Get(i) {
			return 0, false
		}
		rank += p * stride
		stride *= t.shape.Get(i)
	}
	return int(rank), true
}

// Neighbor returns the rank across face dir, or false on the mesh boundary or when the
// face's axis is not a grid axis.
func (t *Topology) Neighbor(dir model.Direction) (int, bool) {
	return t.NeighborOf(t.rank, dir)
}

func (t *Topology) NeighborOf(rank int, dir model.Direction) (int, bool) {
	i := t.shape.IndexOf(dir.Axis())
	if i < 0 {
		return 0, false
	}
	pos := t.Position(rank)
	step := int32(-1)
	if dir.IsHigh() {
		step = 1
	}
	return t.RankAt(pos.With(i, pos.Get(i)+step))
}

// Split returns the extents of every mesh position along component i.
func (t *Topology) Split(i int) []int32 {
	return append([]int32(nil), t.splits[i]...)
}

// SetSplit replaces the extents along component i. The extents must add up to the grid.
func (t *Topology) SetSplit(i int, sizes []int32) {
	if len(sizes) != len(t.splits[i]) {
		panic(fmt.Sprintf("topology: %d extents for %d positions", len(sizes), len(t.splits[i])))
	}
	var sum int32
	for _, s := range sizes {
		if s <= 0 {
			panic(fmt.Sprintf("topology: extent %d", s))
		}
		sum += s
	}
	if sum != t.global.Get(i) {
		panic(fmt.Sprintf("topology: extents add up to %d of %d", sum, t.global.Get(i)))
	}
	t.splits[i] = append([]int32(nil), sizes...)
}

// RangeOf returns the owned range of rank under the current split.
func (t *Topology) RangeOf(rank int) model.Range {
	pos := t.Position(rank)
	start, end := model.Fill(t.global, 0), model.Fill(t.global, 0)
	for i := 0; i < t.global.Dims(); i++ {
		var s int32
		for k := int32(0); k < pos.Get(i); k++ {
			s += t.splits[i][k]
		}
		start = start.With(i, s)
		end = end.With(i, s+t.splits[i][pos.Get(i)])
	}
	return model.NewRange(start, end)
}

// Ranges returns the owned range of every rank.
func (t *Topology) Ranges() []model.Range {
	out := make([]model.Range, t.nodeCount)
	for r := range out {
		out[r] = t.RangeOf(r)
	}
	return out
}

// InitialRanges is Ranges under the even split Build starts from.
func (t *Topology) InitialRanges() []model.Range {
	saved := t.splits
	t.splits = make([][]int32, t.global.Dims())
	for i := range t.splits {
		t.splits[i] = EvenSplit(t.global.Get(i), t.shape.Get(i))
	}
	defer func() { t.splits = saved }()
	return t.Ranges()
}

func (t *Topology) RebalanceAxis() int { return t.rebalanceAxis }

// SetRebalanceAxis picks the axis boundaries move along. It must be set before grids
// are created.
func (t *Topology) SetRebalanceAxis(a model.Axis) error {
	i := t.global.IndexOf(a)
	if i < 0 {
		return fmt.Errorf("%w: axis %s is not a grid axis", ErrConfig, a)
	}
	t.rebalanceAxis = i
	return nil
}

func (t *Topology) NodeState(rank int) NodeState { return t.states[rank] }

// SetNodeState changes the local view of rank's state. Only a node's own entry counts:
// GatherClocks replaces every entry with the state its node reports, so all nodes
// evaluate a rebalance over the same states.
func (t *Topology) SetNodeState(rank int, s NodeState) { t.states[rank] = s }

// ActivateAll marks every node active.
func (t *Topology) ActivateAll() {
	for i := range t.states {
		t.states[i] = Active
	}
}

func (t *Topology) ActiveCount() int {
	n := 0
	for _, s := range t.states {
		if s == Active {
			n++
		}
	}
	return n
}

// Agree checks that every node built the same mesh.
func (t *Topology) Agree(ctx context.Context, comm transport.Comm) error {
	if comm.Size() != t.nodeCount || comm.Rank() != t.rank {
		return fmt.Errorf("%w: endpoint is rank %d of %d, topology rank %d of %d",
			ErrConfig, comm.Rank(), comm.Size(), t.rank, t.nodeCount)
	}
	mine := make([]float64, 0, 2*t.shape.Dims())
	for i := 0; i < t.shape.Dims(); i++ {
		mine = append(mine, float64(t.shape.Get(i)), float64(t.global.Get(i)))
	}
	all, err := transport.AllGather(ctx, comm, model.MsgAgree, mine)
	if err != nil {
		return err
	}
	for r, theirs := range all {
		if len(theirs) != len(mine) {
			return fmt.Errorf("%w: node %d runs a %d-dimensional grid", ErrConfig, r, len(theirs)/2)
		}
		for i := range mine {
			if theirs[i] != mine[i] {
				return fmt.Errorf("%w: node %d disagrees on mesh %v over %v", ErrConfig, r, t.shape, t.global)
			}
		}
	}
	return nil
}
