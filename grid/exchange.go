package grid

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/EMinsight/fdtd3d/model"
)

// ExchangeHalo sends the outermost owned layers across every face with a neighbour and
// fills the halo from the neighbours' messages. All faces run concurrently; the call
// returns once every face is done. Edge and corner halo cells are not exchanged.
func (g *Grid) ExchangeHalo(ctx context.Context) error {
	h := g.sub.Halo
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, dir := range model.Directions {
		if g.sub.Owned.Start.IndexOf(dir.Axis()) < 0 {
			continue
		}
		nb, ok := g.topo.Neighbor(dir)
		if !ok {
			continue
		}
		out := g.sub.Face(dir, h, true)
		in := g.sub.Face(dir, h, false)
		values := g.pack(out)

		wg.Add(2)
		go func(dir model.Direction, nb int) {
			defer wg.Done()
			msg := model.Msg{
				Kind:   model.MsgHalo,
				Grid:   g.name,
				Step:   g.step,
				Dir:    dir,
				Count:  int(out.Volume()),
				Values: values,
			}
			if err := g.comm.Send(ctx, nb, msg); err != nil {
				fail(fmt.Errorf("%w: %s send %s to %d: %v", ErrCommunication, g.name, dir, nb, err))
			}
		}(dir, nb)
		go func(dir model.Direction, nb int, in model.Range) {
			defer wg.Done()
			msg, err := g.comm.Recv(ctx, nb)
			if err != nil {
				fail(fmt.Errorf("%w: %s receive %s from %d: %v", ErrCommunication, g.name, dir, nb, err))
				return
			}
			if err := g.checkHalo(msg, dir, in); err != nil {
				fail(err)
				return
			}
			g.unpack(in, msg.Values)
		}(dir, nb, in)
	}
	wg.Wait()

	if len(errs) > 0 {
		log.WithFields(log.Fields{
			"rank": g.topo.Rank(),
			"grid": g.name,
			"step": g.step,
		}).WithError(errs[0]).Error("halo exchange failed")
		return errs[0]
	}
	g.haloStale.Store(false)
	return nil
}

// checkHalo verifies a message received on face dir. The sender faced the other way.
func (g *Grid) checkHalo(msg model.Msg, dir model.Direction, in model.Range) error {
	switch {
	case msg.Kind != model.MsgHalo || msg.Grid != g.name:
		return fmt.Errorf("%w: %s expected halo on %s, got %s for grid %q", ErrCommunication, g.name, dir, msg.Kind, msg.Grid)
	case msg.Step != g.step:
		return fmt.Errorf("%w: %s halo on %s from step %d at step %d", ErrCommunication, g.name, dir, msg.Step, g.step)
	case msg.Dir != dir.Opposite():
		return fmt.Errorf("%w: %s halo on %s tagged %s", ErrCommunication, g.name, dir, msg.Dir)
	case int64(msg.Count) != in.Volume() || len(msg.Values) != msg.Count*model.PointFloats:
		return fmt.Errorf("%w: %s halo on %s carries %d cells (%d values), want %d",
			ErrCommunication, g.name, dir, msg.Count, len(msg.Values), in.Volume())
	}
	return nil
}
