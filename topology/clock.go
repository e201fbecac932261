package topology

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/EMinsight/fdtd3d/deque"
	"github.com/EMinsight/fdtd3d/model"
	"github.com/EMinsight/fdtd3d/transport"
)

// sampleWindow is how many gathered totals Samples keeps.
const sampleWindow = 16

// ClockSample is one gathered pair of totals of this node.
type ClockSample struct {
	Compute time.Duration
	Idle    time.Duration
}

type clocks struct {
	mu sync.Mutex

	// own live clock
	compute time.Duration
	idle    time.Duration
	started time.Time
	stopped time.Time
	running bool

	// last gathered totals of every node
	gatheredCompute []time.Duration
	gatheredIdle    []time.Duration

	samples *deque.ArrDeque[ClockSample]
}

func newClocks(n int) clocks {
	return clocks{
		gatheredCompute: make([]time.Duration, n),
		gatheredIdle:    make([]time.Duration, n),
		samples:         deque.NewArrDeque[ClockSample](sampleWindow),
	}
}

// StartComputeClock opens a compute interval. The wall time since the previous stop is
// booked as idle.
func (t *Topology) StartComputeClock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		panic("topology: compute clock already running")
	}
	now := time.Now()
	if !t.stopped.IsZero() {
		t.idle += now.Sub(t.stopped)
	}
	t.started, t.running = now, true
}

func (t *Topology) StopComputeClock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		panic("topology: compute clock not running")
	}
	now := time.Now()
	t.compute += now.Sub(t.started)
	t.stopped, t.running = now, false
}

// AddComputeTime books time measured outside the clock, e.g. by an accelerator.
func (t *Topology) AddComputeTime(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compute += d
}

// ComputeClock returns rank's compute total. This node's value is live, the others are
// as of the last GatherClocks.
func (t *Topology) ComputeClock(rank int) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rank == t.rank {
		return t.compute
	}
	return t.gatheredCompute[rank]
}

func (t *Topology) IdleClock(rank int) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rank == t.rank {
		return t.idle
	}
	return t.gatheredIdle[rank]
}

// GatheredComputeClocks returns every node's compute total as of the last gather.
func (t *Topology) GatheredComputeClocks() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.gatheredCompute...)
}

func (t *Topology) GatheredIdleClocks() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.gatheredIdle...)
}

// GatherClocks exchanges compute and idle totals and the node state with every node.
// Afterwards every node holds the state each node reported for itself. It is collective.
func (t *Topology) GatherClocks(ctx context.Context, comm transport.Comm) error {
	t.mu.Lock()
	mine := []float64{float64(t.compute), float64(t.idle), float64(t.states[t.rank])}
	t.mu.Unlock()

	all, err := transport.AllGather(ctx, comm, model.MsgGather, mine)
	if err != nil {
		return fmt.Errorf("gather clocks: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for r, v := range all {
		if len(v) != 3 {
			return fmt.Errorf("%w: node %d sent %d clock values", transport.ErrProtocol, r, len(v))
		}
		s := NodeState(v[2])
		if s != Active && s != Inactive {
			return fmt.Errorf("%w: node %d reports state %v", transport.ErrProtocol, r, v[2])
		}
		t.gatheredCompute[r] = time.Duration(v[0])
		t.gatheredIdle[r] = time.Duration(v[1])
		t.states[r] = s
	}
	if t.samples.IsFull() {
		t.samples.RemoveFirst()
	}
	t.samples.AddLast(ClockSample{Compute: t.gatheredCompute[t.rank], Idle: t.gatheredIdle[t.rank]})
	return nil
}

// Samples returns this node's gathered totals, oldest first.
func (t *Topology) Samples() []ClockSample {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ClockSample, 0, t.samples.Size())
	t.samples.Traverse(func(_ int, s *ClockSample) { out = append(out, *s) })
	return out
}

// ResetClocks zeroes every total. A running interval restarts now.
func (t *Topology) ResetClocks() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compute, t.idle = 0, 0
	t.stopped = time.Time{}
	if t.running {
		t.started = time.Now()
	}
	for i := range t.gatheredCompute {
		t.gatheredCompute[i], t.gatheredIdle[i] = 0, 0
	}
}
