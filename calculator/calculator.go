// Package calculator drives the time steps of one node: field update over the owned
// range, halo sharing and periodic rebalancing.
package calculator

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/EMinsight/fdtd3d/grid"
	"github.com/EMinsight/fdtd3d/layout"
	"github.com/EMinsight/fdtd3d/model"
	"github.com/EMinsight/fdtd3d/rebalance"
	"github.com/EMinsight/fdtd3d/topology"
	"github.com/EMinsight/fdtd3d/transport"
)

// Cell is what an UpdateFunc knows about the cell it updates.
type Cell struct {
	Type  model.GridType
	Coord model.GridCoord
	Time  int64
	InPML bool
	// faces that need the incident wave correction
	TFSF model.DirectionSet
}

type UpdateFunc func(cell Cell, p *model.FieldPoint)

// SineSource drives every cell with the same oscillation: sine in the real part, cosine
// in the imaginary part.
func SineSource(cell Cell, p *model.FieldPoint) {
	arg := 10000*float64(cell.Time)*0.01 - 2*math.Pi/0.2
	p.Cur = complex(math.Sin(arg), math.Cos(arg))
}

type Options struct {
	Layout layout.Params
	// requested process mesh. The zero value lets the topology choose.
	Shape model.GridCoord
	// AxisNone picks the axis with the most nodes
	RebalanceAxis model.Axis

	Halo          int32
	ShareInterval int32
	Rebalance     rebalance.Config
	Workers       int

	// nil means SineSource
	Update UpdateFunc
	// written by rank 0 only, may be nil
	Report *Report
}

type Calculator struct {
	layout *layout.YeeLayout
	topo   *topology.Topology
	comm   transport.Comm

	fields []model.GridType
	grids  []*grid.Grid
	share  *grid.ShareGroup
	rb     *rebalance.Rebalancer

	e      *executor
	update UpdateFunc
	report *Report

	t int64
}

// New builds the layout, agrees on the topology with every other node and allocates
// one grid per field of the scheme. It is collective.
func New(ctx context.Context, comm transport.Comm, opts Options) (*Calculator, error) {
	l, err := layout.New(opts.Layout)
	if err != nil {
		return nil, err
	}
	fieldTypes := l.Scheme().Fields()
	size := l.Size(fieldTypes[0])
	topo, err := topology.Build(comm.Rank(), comm.Size(), size, opts.Shape)
	if err != nil {
		return nil, err
	}
	if opts.RebalanceAxis != model.AxisNone {
		if err := topo.SetRebalanceAxis(opts.RebalanceAxis); err != nil {
			return nil, err
		}
	}
	if err := topo.Agree(ctx, comm); err != nil {
		return nil, err
	}

	c := &Calculator{
		layout: l,
		topo:   topo,
		comm:   comm,
		fields: fieldTypes,
		update: opts.Update,
		report: opts.Report,
	}
	if c.update == nil {
		c.update = SineSource
	}
	for _, f := range c.fields {
		g, err := grid.New(f.String(), size, opts.Halo, topo, comm)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f, err)
		}
		c.grids = append(c.grids, g)
	}
	if c.share, err = grid.NewShareGroup(opts.ShareInterval, opts.Halo); err != nil {
		return nil, err
	}
	if c.rb, err = rebalance.New(topo, comm, opts.Rebalance, c.grids...); err != nil {
		return nil, err
	}
	c.e = newExecutor(opts.Workers)
	c.e.run()
	return c, nil
}

func (c *Calculator) Layout() *layout.YeeLayout { return c.layout }

func (c *Calculator) Topology() *topology.Topology { return c.topo }

func (c *Calculator) Grids() []*grid.Grid { return c.grids }

// Grid returns the grid of field t, or nil if the scheme has no such field.
func (c *Calculator) Grid(t model.GridType) *grid.Grid {
	for i, f := range c.fields {
		if f == t {
			return c.grids[i]
		}
	}
	return nil
}

func (c *Calculator) TimeStep() int64 { return c.t }

// SetActive marks this node active or inactive. An inactive node keeps its cells and
// takes part in every exchange but skips the update. The other nodes learn the state at
// the next rebalance evaluation, and an accepted rebalance makes every node active again.
func (c *Calculator) SetActive(active bool) {
	s := topology.Inactive
	if active {
		s = topology.Active
	}
	c.topo.SetNodeState(c.topo.Rank(), s)
}

func (c *Calculator) Epoch() int64 { return c.rb.Epoch() }

// Run performs steps time steps.
func (c *Calculator) Run(ctx context.Context, steps int64) error {
	start := time.Now()
	fields := log.Fields{"rank": c.comm.Rank(), "steps": steps}
	log.WithFields(fields).Info("run started")
	for i := int64(0); i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Step(ctx); err != nil {
			log.WithFields(fields).WithField("step", c.t).WithError(err).Error("run aborted")
			return err
		}
	}
	log.WithFields(fields).WithFields(log.Fields{
		"elapsed": time.Since(start).String(),
		"epoch":   c.rb.Epoch(),
		"owned":   c.grids[0].OwnedRange().String(),
	}).Info("run finished")
	return nil
}

// Step advances every field one time step. It is collective.
func (c *Calculator) Step(ctx context.Context) error {
	if c.topo.NodeState(c.topo.Rank()) == topology.Active {
		c.topo.StartComputeClock()
		for i, g := range c.grids {
			c.e.dispatchTask(g, g.OwnedRange(), g.Subdomain().Axis, c.cellUpdate(c.fields[i]))
		}
		c.topo.StopComputeClock()
	}

	c.share.NextShareStep()
	if c.share.IsShareTime() {
		for _, g := range c.grids {
			if err := g.ExchangeHalo(ctx); err != nil {
				return err
			}
		}
		c.share.ZeroShareStep()
	}
	for _, g := range c.grids {
		g.ShiftInTime()
	}
	c.t++

	if !c.rb.IsRebalanceStep(c.t) {
		return nil
	}
	out, err := c.rb.Rebalance(ctx)
	if err != nil {
		return err
	}
	if c.report != nil && c.comm.Rank() == 0 {
		if err := c.report.Write(c.loadRecords(out)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Calculator) cellUpdate(t model.GridType) grid.UpdateFunc {
	step := c.t
	return func(coord model.GridCoord, p *model.FieldPoint) {
		c.update(Cell{
			Type:  t,
			Coord: coord,
			Time:  step,
			InPML: c.layout.IsInPML(t, coord),
			TFSF:  c.layout.TFSFFaces(t, coord),
		}, p)
	}
}

func (c *Calculator) loadRecords(out rebalance.Outcome) []LoadRecord {
	axis := c.topo.RebalanceAxis()
	sizes := out.Before
	if out.Accepted {
		sizes = out.After
	}
	records := make([]LoadRecord, len(out.Compute))
	for rank := range records {
		records[rank] = LoadRecord{
			Step:     c.t,
			Epoch:    out.Epoch,
			Rank:     rank,
			Compute:  out.Compute[rank].Seconds(),
			Idle:     out.Idle[rank].Seconds(),
			Extent:   sizes[c.topo.Position(rank).Get(axis)],
			Accepted: out.Accepted,
			Reason:   out.Reason,
		}
	}
	return records
}

// Close stops the workers. The transport stays open.
func (c *Calculator) Close() {
	c.e.stop()
}
