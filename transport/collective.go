package transport

import (
	"context"
	"fmt"

	"github.com/EMinsight/fdtd3d/model"
)

// AllGather sends values to every node and returns every node's values indexed by rank.
// All nodes must call it with the same kind at the same point of their message sequence.
func AllGather(ctx context.Context, c Comm, kind string, values []float64) ([][]float64, error) {
	out := make([][]float64, c.Size())
	out[c.Rank()] = append([]float64(nil), values...)
	for to := 0; to < c.Size(); to++ {
		if to == c.Rank() {
			continue
		}
		msg := model.Msg{Kind: kind, Count: len(values), Values: append([]float64(nil), values...)}
		if err := c.Send(ctx, to, msg); err != nil {
			return nil, fmt.Errorf("gather %s to %d: %w", kind, to, err)
		}
	}
	for from := 0; from < c.Size(); from++ {
		if from == c.Rank() {
			continue
		}
		msg, err := c.Recv(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("gather %s from %d: %w", kind, from, err)
		}
		if msg.Kind != kind || len(msg.Values) != msg.Count {
			return nil, fmt.Errorf("%w: gather %s from %d got %s with %d of %d values",
				ErrProtocol, kind, from, msg.Kind, len(msg.Values), msg.Count)
		}
		out[from] = msg.Values
	}
	return out, nil
}

// Barrier returns once every node has entered it.
func Barrier(ctx context.Context, c Comm) error {
	_, err := AllGather(ctx, c, model.MsgBarrier, nil)
	return err
}
