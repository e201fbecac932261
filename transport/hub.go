package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/EMinsight/fdtd3d/model"
)

const peerQueue = 256

// peer is one websocket connection. Reads are done by a single goroutine that routes
// messages into msg; writes are serialized by wmu.
type peer struct {
	rank int
	conn *websocket.Conn
	wmu  sync.Mutex

	msg  chan model.Msg
	done chan struct{}
	err  error
}

// Hub keeps one connection per remote node and implements Comm over them.
type Hub struct {
	rank  int
	addrs []string

	mu        sync.Mutex
	peers     []*peer
	connected int
	ready     chan struct{}

	server    *Server
	closed    chan struct{}
	closeOnce sync.Once
}

func NewHub(rank int, addrs []string) *Hub {
	h := &Hub{
		rank:   rank,
		addrs:  addrs,
		peers:  make([]*peer, len(addrs)),
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}
	for i := range h.peers {
		h.peers[i] = &peer{rank: i, msg: make(chan model.Msg, peerQueue), done: make(chan struct{})}
	}
	if len(addrs) <= 1 {
		close(h.ready)
	}
	return h
}

func (h *Hub) Rank() int { return h.rank }

func (h *Hub) Size() int { return len(h.peers) }

// register attaches conn to node from and starts its reader.
func (h *Hub) register(from int, conn *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if from < 0 || from >= len(h.peers) || from == h.rank {
		return fmt.Errorf("%w: hello from node %d", ErrProtocol, from)
	}
	p := h.peers[from]
	if p.conn != nil {
		return fmt.Errorf("%w: node %d connected twice", ErrProtocol, from)
	}
	p.conn = conn
	go h.handleRequest(p)

	h.connected++
	log.WithFields(log.Fields{"rank": h.rank, "peer": from, "remote": conn.RemoteAddr().String()}).Debug("peer connected")
	if h.connected == len(h.peers)-1 {
		close(h.ready)
	}
	return nil
}

func (h *Hub) handleRequest(p *peer) {
	defer close(p.done)
	for {
		var msg model.Msg
		if err := p.conn.ReadJSON(&msg); err != nil {
			p.err = err
			select {
			case <-h.closed:
			default:
				log.WithFields(log.Fields{"rank": h.rank, "peer": p.rank}).WithError(err).Warn("peer connection lost")
			}
			return
		}
		select {
		case p.msg <- msg:
		case <-h.closed:
			return
		}
	}
}

// Connect dials every lower rank and waits until every higher rank has dialled in.
func (h *Hub) Connect(ctx context.Context) error {
	for to := 0; to < h.rank; to++ {
		conn, err := h.dial(ctx, to)
		if err != nil {
			return err
		}
		if err := conn.WriteJSON(model.Msg{Kind: model.MsgHello, From: h.rank}); err != nil {
			conn.Close()
			return fmt.Errorf("%w: hello to %d: %v", ErrPeer, to, err)
		}
		if err := h.register(to, conn); err != nil {
			conn.Close()
			return err
		}
	}
	select {
	case <-h.ready:
		log.WithFields(log.Fields{"rank": h.rank, "nodes": h.Size()}).Info("mesh connected")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for peers: %v", ErrPeer, ctx.Err())
	}
}

func (h *Hub) dial(ctx context.Context, to int) (*websocket.Conn, error) {
	url := "ws://" + h.addrs[to] + meshPath
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err == nil {
			return conn, nil
		}
		log.WithFields(log.Fields{"rank": h.rank, "peer": to, "url": url}).WithError(err).Debug("dial failed")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: dial %s: %v", ErrPeer, url, err)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (h *Hub) Send(ctx context.Context, to int, msg model.Msg) error {
	if to < 0 || to >= len(h.peers) {
		return fmt.Errorf("%w: no node %d in a mesh of %d", ErrPeer, to, len(h.peers))
	}
	msg.From = h.rank
	p := h.peers[to]
	if to == h.rank {
		select {
		case p.msg <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.mu.Lock()
	conn := p.conn
	h.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: node %d is not connected", ErrPeer, to)
	}

	// encoded before the frame is opened, so a value json rejects leaves the
	// connection usable
	data, err := json.Marshal(&msg)
	if err != nil {
		return fmt.Errorf("%w: encode %s for %d: %v", ErrPeer, msg.Kind, to, err)
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()
	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: send to %d: %v", ErrPeer, to, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: send to %d: %v", ErrPeer, to, err)
	}
	return nil
}

func (h *Hub) Recv(ctx context.Context, from int) (model.Msg, error) {
	if from < 0 || from >= len(h.peers) {
		return model.Msg{}, fmt.Errorf("%w: no node %d in a mesh of %d", ErrPeer, from, len(h.peers))
	}
	p := h.peers[from]
	select {
	case msg := <-p.msg:
		return msg, nil
	case <-p.done:
		select {
		case msg := <-p.msg:
			return msg, nil
		default:
		}
		return model.Msg{}, fmt.Errorf("%w: node %d: %v", ErrPeer, from, p.err)
	case <-ctx.Done():
		return model.Msg{}, ctx.Err()
	case <-h.closed:
		return model.Msg{}, ErrClosed
	}
}

func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.closed)
		if h.server != nil {
			h.server.Close()
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, p := range h.peers {
			if p.conn != nil {
				p.conn.Close()
			}
		}
	})
	return nil
}
