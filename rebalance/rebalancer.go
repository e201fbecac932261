// Package rebalance moves subdomain boundaries along one axis so that every node takes
// about the same wall time per step, and migrates the cells that change owner.
package rebalance

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/EMinsight/fdtd3d/grid"
	"github.com/EMinsight/fdtd3d/model"
	"github.com/EMinsight/fdtd3d/topology"
	"github.com/EMinsight/fdtd3d/transport"
)

// ErrMigration reports a failed or mismatched cell migration. It is fatal to the run.
var ErrMigration = errors.New("rebalance: migration failed")

type Config struct {
	// Interval is the number of steps between evaluations.
	Interval int64
	// Threshold skips evaluations whose imbalance is below it. Zero always proposes.
	Threshold float64
}

// Outcome describes one evaluation.
type Outcome struct {
	Epoch    int64
	Accepted bool
	Reason   string
	// gathered totals of every node at evaluation time
	Compute []time.Duration
	Idle    []time.Duration
	Before  []int32
	After   []int32
}

type Rebalancer struct {
	topo  *topology.Topology
	comm  transport.Comm
	grids []*grid.Grid
	cfg   Config

	minSize int32
	epoch   int64
}

// New balances grids, which must all live on topo.
func New(topo *topology.Topology, comm transport.Comm, cfg Config, grids ...*grid.Grid) (*Rebalancer, error) {
	if cfg.Interval < 1 {
		return nil, fmt.Errorf("rebalance interval %d must be positive", cfg.Interval)
	}
	if len(grids) == 0 {
		return nil, errors.New("rebalance: no grids")
	}
	r := &Rebalancer{topo: topo, comm: comm, grids: grids, cfg: cfg}
	for _, g := range grids {
		r.minSize = max(r.minSize, g.HaloWidth())
	}
	return r, nil
}

func (r *Rebalancer) Epoch() int64 { return r.epoch }

// IsRebalanceStep reports whether step closes an interval.
func (r *Rebalancer) IsRebalanceStep(step int64) bool {
	return step > 0 && step%r.cfg.Interval == 0
}

// slabTimes averages the gathered compute time, in seconds, of the active nodes of
// every slab along the rebalance axis.
func (r *Rebalancer) slabTimes(axis int, compute []time.Duration) []float64 {
	n := r.topo.Shape().Get(axis)
	sum := make([]float64, n)
	count := make([]int, n)
	for rank, c := range compute {
		if r.topo.NodeState(rank) != topology.Active {
			continue
		}
		p := r.topo.Position(rank).Get(axis)
		sum[p] += c.Seconds()
		count[p]++
	}
	for i := range sum {
		if count[i] > 0 {
			sum[i] /= float64(count[i])
		}
	}
	return sum
}

// Rebalance gathers the clocks, and when the proposal is accepted migrates every grid
// and refreshes the halos. It is collective. Rejections are not errors.
func (r *Rebalancer) Rebalance(ctx context.Context) (Outcome, error) {
	if err := r.topo.GatherClocks(ctx, r.comm); err != nil {
		return Outcome{}, err
	}
	axis := r.topo.RebalanceAxis()
	out := Outcome{
		Epoch:   r.epoch,
		Compute: r.topo.GatheredComputeClocks(),
		Idle:    r.topo.GatheredIdleClocks(),
		Before:  r.topo.Split(axis),
	}
	fields := log.Fields{"rank": r.topo.Rank(), "epoch": r.epoch, "axis": r.topo.GlobalSize().Axis(axis).String()}

	if len(out.Before) < 2 {
		out.Reason = "single slab"
		return out, nil
	}
	times := r.slabTimes(axis, out.Compute)
	p, err := Propose(times, out.Before, r.minSize, r.cfg.Threshold)
	if err != nil {
		if !errors.Is(err, ErrRejected) && !errors.Is(err, ErrUnchanged) {
			return out, err
		}
		out.Reason = err.Error()
		log.WithFields(fields).WithField("times", times).Debug(out.Reason)
		return out, nil
	}

	r.epoch++
	r.topo.SetSplit(axis, p.Sizes)
	owned := r.topo.RangeOf(r.topo.Rank())
	for _, g := range r.grids {
		if err := r.migrate(ctx, g, owned); err != nil {
			log.WithFields(fields).WithError(err).Error("migration failed")
			return out, err
		}
	}
	for _, g := range r.grids {
		if err := g.ExchangeHalo(ctx); err != nil {
			return out, err
		}
	}
	r.topo.ActivateAll()
	r.topo.ResetClocks()

	out.Epoch, out.Accepted, out.After = r.epoch, true, p.Sizes
	log.WithFields(fields).WithFields(log.Fields{
		"before":    out.Before,
		"after":     out.After,
		"imbalance": p.Imbalance,
	}).Info("subdomains rebalanced")
	return out, nil
}

// migrate hands the layers g gives up to the face neighbours and takes over the layers
// they give up, then resizes g to owned.
func (r *Rebalancer) migrate(ctx context.Context, g *grid.Grid, owned model.Range) error {
	old, a := g.OwnedRange(), g.Subdomain().Axis
	os, oe := old.Start.Get(a), old.End.Get(a)
	ns, ne := owned.Start.Get(a), owned.End.Get(a)
	lowDir := model.DirectionOf(old.Start.Axis(a), false)
	highDir := lowDir.Opposite()

	if ns > os {
		if err := r.sendSlabs(ctx, g, lowDir, ns-os); err != nil {
			return err
		}
	}
	if ne < oe {
		if err := r.sendSlabs(ctx, g, highDir, oe-ne); err != nil {
			return err
		}
	}
	var low, high []float64
	var err error
	if ns < os {
		if low, err = r.recvSlabs(ctx, g, lowDir, os-ns); err != nil {
			return err
		}
	}
	if ne > oe {
		if high, err = r.recvSlabs(ctx, g, highDir, ne-oe); err != nil {
			return err
		}
	}
	g.Resize(owned, low, high)
	return nil
}

func (r *Rebalancer) sendSlabs(ctx context.Context, g *grid.Grid, dir model.Direction, depth int32) error {
	nb, ok := r.topo.Neighbor(dir)
	if !ok {
		return fmt.Errorf("%w: %s gives up %d layers on %s without a neighbour", ErrMigration, g.Name(), depth, dir)
	}
	msg := model.Msg{
		Kind:   model.MsgMigrate,
		Grid:   g.Name(),
		Epoch:  r.epoch,
		Dir:    dir,
		Count:  g.LayerCells(depth),
		Values: g.ExtractSlabs(dir, depth),
	}
	if err := r.comm.Send(ctx, nb, msg); err != nil {
		return fmt.Errorf("%w: %s send to %d: %v", ErrMigration, g.Name(), nb, err)
	}
	return nil
}

func (r *Rebalancer) recvSlabs(ctx context.Context, g *grid.Grid, dir model.Direction, depth int32) ([]float64, error) {
	nb, ok := r.topo.Neighbor(dir)
	if !ok {
		return nil, fmt.Errorf("%w: %s takes over %d layers on %s without a neighbour", ErrMigration, g.Name(), depth, dir)
	}
	msg, err := r.comm.Recv(ctx, nb)
	if err != nil {
		return nil, fmt.Errorf("%w: %s receive from %d: %v", ErrMigration, g.Name(), nb, err)
	}
	want := g.LayerCells(depth)
	switch {
	case msg.Kind != model.MsgMigrate || msg.Grid != g.Name() || msg.Epoch != r.epoch:
		return nil, fmt.Errorf("%w: %s expected migration of epoch %d, got %s for %q epoch %d",
			ErrMigration, g.Name(), r.epoch, msg.Kind, msg.Grid, msg.Epoch)
	case msg.Dir != dir.Opposite():
		return nil, fmt.Errorf("%w: %s layers on %s tagged %s", ErrMigration, g.Name(), dir, msg.Dir)
	case msg.Count != want || len(msg.Values) != want*model.PointFloats:
		return nil, fmt.Errorf("%w: %s got %d cells (%d values) on %s, want %d",
			ErrMigration, g.Name(), msg.Count, len(msg.Values), dir, want)
	}
	return msg.Values, nil
}
