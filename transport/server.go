package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/EMinsight/fdtd3d/model"
)

const meshPath = "/mesh"

// Server accepts the connections of higher ranked nodes and hands them to the hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	http     *http.Server
}

func NewServer(hub *Hub) *Server {
	s := &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 16,
			WriteBufferSize: 1 << 16,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(meshPath, s.serveWs)
	s.http = &http.Server{Handler: mux}
	hub.server = s
	return s
}

// serveWs upgrades one incoming connection and waits for its hello.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	var hello model.Msg
	if err := conn.ReadJSON(&hello); err != nil || hello.Kind != model.MsgHello {
		log.WithFields(log.Fields{"remote": r.RemoteAddr, "kind": hello.Kind}).WithError(err).Warn("bad hello")
		conn.Close()
		return
	}
	if hello.From <= s.hub.rank {
		log.WithFields(log.Fields{"rank": s.hub.rank, "peer": hello.From}).Warn("hello from a rank that should be dialled")
		conn.Close()
		return
	}
	if err := s.hub.register(hello.From, conn); err != nil {
		log.WithError(err).Warn("rejecting peer")
		conn.Close()
	}
}

// Serve accepts connections on ln until Close.
func (s *Server) Serve(ln net.Listener) {
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("mesh server stopped")
		}
	}()
}

func (s *Server) Close() error {
	return s.http.Close()
}

// DialMesh listens on addrs[rank], connects to every other node and returns the
// connected endpoint.
func DialMesh(ctx context.Context, rank int, addrs []string) (*Hub, error) {
	if rank < 0 || rank >= len(addrs) {
		return nil, fmt.Errorf("%w: rank %d with %d addresses", ErrPeer, rank, len(addrs))
	}
	ln, err := net.Listen("tcp", addrs[rank])
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s: %v", ErrPeer, addrs[rank], err)
	}
	return Start(ctx, rank, addrs, ln)
}

// Start serves on ln and connects the mesh.
func Start(ctx context.Context, rank int, addrs []string, ln net.Listener) (*Hub, error) {
	hub := NewHub(rank, addrs)
	NewServer(hub).Serve(ln)
	if err := hub.Connect(ctx); err != nil {
		hub.Close()
		return nil, err
	}
	return hub, nil
}
