package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/EMinsight/fdtd3d/model"
)

const localQueue = 64

type localMesh struct {
	// queues[from][to]
	queues [][]chan model.Msg
}

type localComm struct {
	rank      int
	mesh      *localMesh
	closed    chan struct{}
	closeOnce sync.Once
}

// NewLocalMesh connects n in-process nodes through buffered channels.
func NewLocalMesh(n int) []Comm {
	m := &localMesh{queues: make([][]chan model.Msg, n)}
	for from := range m.queues {
		m.queues[from] = make([]chan model.Msg, n)
		for to := range m.queues[from] {
			m.queues[from][to] = make(chan model.Msg, localQueue)
		}
	}
	comms := make([]Comm, n)
	for i := range comms {
		comms[i] = &localComm{rank: i, mesh: m, closed: make(chan struct{})}
	}
	return comms
}

func (c *localComm) Rank() int { return c.rank }

func (c *localComm) Size() int { return len(c.mesh.queues) }

func (c *localComm) check(peer int) error {
	if peer < 0 || peer >= c.Size() {
		return fmt.Errorf("%w: no node %d in a mesh of %d", ErrPeer, peer, c.Size())
	}
	return nil
}

func (c *localComm) Send(ctx context.Context, to int, msg model.Msg) error {
	if err := c.check(to); err != nil {
		return err
	}
	msg.From = c.rank
	select {
	case c.mesh.queues[c.rank][to] <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return ErrClosed
	}
}

func (c *localComm) Recv(ctx context.Context, from int) (model.Msg, error) {
	if err := c.check(from); err != nil {
		return model.Msg{}, err
	}
	select {
	case msg := <-c.mesh.queues[from][c.rank]:
		return msg, nil
	case <-ctx.Done():
		return model.Msg{}, ctx.Err()
	case <-c.closed:
		return model.Msg{}, ErrClosed
	}
}

func (c *localComm) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}
