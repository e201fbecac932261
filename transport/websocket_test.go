package transport

import (
	"context"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/fdtd3d/model"
)

func startMesh(t *testing.T, n int) []Comm {
	t.Helper()
	listeners := make([]net.Listener, n)
	addrs := make([]string, n)
	for i := range listeners {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		listeners[i] = ln
		addrs[i] = ln.Addr().String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	comms := make([]Comm, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hub, err := Start(ctx, i, addrs, listeners[i])
			errs[i] = err
			if err == nil {
				comms[i] = hub
			}
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	t.Cleanup(func() {
		for _, c := range comms {
			c.Close()
		}
	})
	return comms
}

func TestWebsocketMeshRoundTrip(t *testing.T) {
	comms := startMesh(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	vals := []float64{1.5, -2, 0.25, 0, 3, 4}
	require.NoError(t, comms[2].Send(ctx, 0, model.Msg{Kind: model.MsgHalo, Step: 7, Dir: model.Left, Count: 1, Values: vals}))
	msg, err := comms[0].Recv(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, msg.From)
	assert.Equal(t, int64(7), msg.Step)
	assert.Equal(t, model.Left, msg.Dir)
	assert.Equal(t, vals, msg.Values)
}

func TestWebsocketMeshAllGather(t *testing.T) {
	comms := startMesh(t, 3)
	got := make([][][]float64, len(comms))
	errs := runAll(comms, func(c Comm) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		vals, err := AllGather(ctx, c, model.MsgGather, []float64{float64(c.Rank() * 2)})
		got[c.Rank()] = vals
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, vals := range got {
		assert.Equal(t, [][]float64{{0}, {2}, {4}}, vals)
	}
}

func TestWebsocketNonFiniteValues(t *testing.T) {
	comms := startMesh(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		err := comms[0].Send(ctx, 1, model.Msg{Kind: model.MsgHalo, Count: 1, Values: []float64{v, 0, 0, 0, 0, 0}})
		assert.ErrorIs(t, err, ErrPeer, "%v", v)
	}

	// the connection survives the rejected messages
	require.NoError(t, comms[0].Send(ctx, 1, model.Msg{Kind: model.MsgHalo, Step: 3, Count: 1, Values: []float64{1, 0, 0, 0, 0, 0}}))
	msg, err := comms[1].Recv(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), msg.Step)
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 0}, msg.Values)
}

func TestWebsocketPeerLoss(t *testing.T) {
	comms := startMesh(t, 2)
	require.NoError(t, comms[1].Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := comms[0].Recv(ctx, 1)
	assert.ErrorIs(t, err, ErrPeer)
}

func TestWebsocketSendAfterClose(t *testing.T) {
	comms := startMesh(t, 2)
	require.NoError(t, comms[0].Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := comms[0].Send(ctx, 1, model.Msg{Kind: model.MsgHalo, Count: 1, Values: []float64{1, 0, 0, 0, 0, 0}})
	assert.ErrorIs(t, err, ErrPeer)
}
