// Package transport moves model.Msg records between the nodes of a run. Delivery between
// any ordered pair of nodes is FIFO; nothing is retried.
package transport

import (
	"context"
	"errors"

	"github.com/EMinsight/fdtd3d/model"
)

var (
	ErrClosed = errors.New("transport: closed")
	// ErrPeer reports a lost or unreachable peer.
	ErrPeer = errors.New("transport: peer failure")
	// ErrProtocol reports a message that does not fit the collective being run.
	ErrProtocol = errors.New("transport: unexpected message")
)

// Comm is one node's endpoint of the mesh.
type Comm interface {
	Rank() int
	Size() int
	// Send delivers msg to node to. From is filled in by the endpoint.
	Send(ctx context.Context, to int, msg model.Msg) error
	// Recv returns the next message sent by node from.
	Recv(ctx context.Context, from int) (model.Msg, error)
	Close() error
}
