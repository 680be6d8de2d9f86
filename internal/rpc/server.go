package rpc

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/invincibleAntares/vtu-vtk/internal/monitoring"
	"github.com/invincibleAntares/vtu-vtk/internal/timeutil"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 60 * time.Second

	// sendBuffer bounds the per-connection outbound queue. Responses are
	// small JSON payloads, so a shallow buffer is enough to decouple the
	// read loop from a slow client.
	sendBuffer = 32
)

// Server accepts WebSocket connections and feeds incoming frames to a
// Dispatcher. Each connection is serviced by a read loop plus a write pump;
// requests on one connection are handled in order, matching the dashboard's
// call-and-wait usage.
type Server struct {
	dispatch *Dispatcher
	upgrader websocket.Upgrader
	clock    timeutil.Clock

	clientCount atomic.Int32
}

// NewServer returns a Server for the given dispatcher. The upgrader accepts
// any origin: the dashboard dev server runs on a different port than the
// visualization backend.
func NewServer(d *Dispatcher) *Server {
	return &Server{
		dispatch: d,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clock: timeutil.RealClock{},
	}
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int { return int(s.clientCount.Load()) }

// Methods reports the dispatcher's registered method names.
func (s *Server) Methods() []string { return s.dispatch.Methods() }

// ServeHTTP upgrades the request and services the connection until the
// client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wc, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("rpc: websocket upgrade failed: %v", err)
		return
	}

	n := s.clientCount.Add(1)
	monitoring.Logf("rpc: client connected from %s (total clients: %d)", r.RemoteAddr, n)

	send := make(chan []byte, sendBuffer)
	done := make(chan struct{})
	go s.writePump(wc, send, done)

	err = s.readLoop(r, wc, send, done)
	close(send)
	<-done

	n = s.clientCount.Add(-1)
	if err != nil {
		monitoring.Logf("rpc: client %s read failed: %v (total clients: %d)", r.RemoteAddr, err, n)
	} else {
		monitoring.Logf("rpc: client %s disconnected (total clients: %d)", r.RemoteAddr, n)
	}
}

// readLoop reads frames until the connection closes. Binary frames are
// rejected; the protocol is JSON text only.
func (s *Server) readLoop(r *http.Request, wc *websocket.Conn, send chan<- []byte, done <-chan struct{}) error {
	for {
		op, raw, err := wc.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return err
		}
		if op != websocket.TextMessage {
			continue
		}
		select {
		case send <- s.dispatch.DispatchBytes(r.Context(), raw):
		case <-done:
			// Write side is gone; the next read will fail and end the loop.
			return nil
		}
	}
}

// writePump serializes all writes to the connection, including keepalive
// pings, so the read loop never touches the write side.
func (s *Server) writePump(wc *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	defer close(done)
	defer wc.Close()

	ticker := s.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				wc.SetWriteDeadline(time.Now().Add(writeTimeout))
				wc.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C():
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
