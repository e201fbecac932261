package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/fdtd3d/model"
)

func TestLocalMeshFIFO(t *testing.T) {
	ctx := context.Background()
	comms := NewLocalMesh(2)
	for i := 0; i < 5; i++ {
		require.NoError(t, comms[0].Send(ctx, 1, model.Msg{Kind: model.MsgHalo, Step: int64(i)}))
	}
	for i := 0; i < 5; i++ {
		msg, err := comms[1].Recv(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(i), msg.Step)
		assert.Equal(t, 0, msg.From)
	}
}

func TestLocalMeshErrors(t *testing.T) {
	comms := NewLocalMesh(2)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := comms[0].Recv(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, comms[0].Send(context.Background(), 2, model.Msg{}), ErrPeer)

	require.NoError(t, comms[1].Close())
	_, err = comms[1].Recv(context.Background(), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

// runAll runs f on every node concurrently and collects the errors.
func runAll(comms []Comm, f func(c Comm) error) []error {
	errs := make([]error, len(comms))
	var wg sync.WaitGroup
	for i, c := range comms {
		wg.Add(1)
		go func(i int, c Comm) {
			defer wg.Done()
			errs[i] = f(c)
		}(i, c)
	}
	wg.Wait()
	return errs
}

func TestAllGather(t *testing.T) {
	comms := NewLocalMesh(4)
	got := make([][][]float64, len(comms))
	errs := runAll(comms, func(c Comm) error {
		vals, err := AllGather(context.Background(), c, model.MsgGather, []float64{float64(c.Rank()), 10})
		got[c.Rank()] = vals
		if err != nil {
			return err
		}
		return Barrier(context.Background(), c)
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, vals := range got {
		require.Len(t, vals, 4)
		for r, v := range vals {
			assert.Equal(t, []float64{float64(r), 10}, v)
		}
	}
}

func TestAllGatherKindMismatch(t *testing.T) {
	comms := NewLocalMesh(2)
	errs := runAll(comms, func(c Comm) error {
		kind := model.MsgGather
		if c.Rank() == 1 {
			kind = model.MsgBarrier
		}
		_, err := AllGather(context.Background(), c, kind, []float64{1})
		return err
	})
	assert.ErrorIs(t, errs[0], ErrProtocol)
	assert.ErrorIs(t, errs[1], ErrProtocol)
}
