// Package observer serves a read-only websocket feed of tick reports
// for host game loops and dashboards. Observers never influence the
// simulation.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"hearthstead.gg/internal/protocol"
)

// Bootstrap is the static run description returned before subscribing.
type Bootstrap func() protocol.BootstrapResponse

type Server struct {
	bootstrap Bootstrap
	log       *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	maxSessions int
	sendBuffer  int
}

type subscriber struct {
	out        chan []byte
	everyTicks int
}

func NewServer(bootstrap Bootstrap, logger *log.Logger, maxSessions, sendBuffer int) *Server {
	if maxSessions <= 0 {
		maxSessions = 64
	}
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Server{
		bootstrap: bootstrap,
		log:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subscribers: map[uint64]*subscriber{},
		maxSessions: maxSessions,
		sendBuffer:  sendBuffer,
	}
}

// Broadcast fans a tick report out to all subscribers, honoring their
// thinning setting. Slow subscribers drop messages rather than stalling
// the tick loop.
func (s *Server) Broadcast(tick uint64, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		if sub.everyTicks > 1 && tick%uint64(sub.everyTicks) != 0 {
			continue
		}
		select {
		case sub.out <- payload:
		default:
		}
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.bootstrap())
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest), time.Now().Add(time.Second))
			return
		}
		if base.Type != protocol.TypeSubscribe || base.ProtocolVersion != protocol.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest), time.Now().Add(time.Second))
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest), time.Now().Add(time.Second))
			return
		}

		// A terminal run will never tick again; tell late observers to
		// use the summary endpoint instead.
		if protocol.IsTerminalRunState(s.bootstrap().State) {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, protocol.ErrRunFinished), time.Now().Add(time.Second))
			return
		}

		id := s.nextID.Add(1)
		out := make(chan []byte, s.sendBuffer)

		s.mu.Lock()
		if len(s.subscribers) >= s.maxSessions {
			s.mu.Unlock()
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		s.subscribers[id] = &subscriber{out: out, everyTicks: normalizeEvery(sub.EveryTicks)}
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		}()

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for b := range out {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeSubscribe || base.ProtocolVersion != protocol.Version {
				continue
			}
			var upd protocol.SubscribeMsg
			if err := json.Unmarshal(msg, &upd); err != nil {
				continue
			}
			s.mu.Lock()
			if cur, ok := s.subscribers[id]; ok {
				cur.everyTicks = normalizeEvery(upd.EveryTicks)
			}
			s.mu.Unlock()
		}

		// Unregister before closing so Broadcast can't hit a closed channel.
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
		close(out)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer so it doesn't outlive conn.
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func normalizeEvery(n int) int {
	if n <= 0 {
		return 1
	}
	if n > 1000 {
		return 1000
	}
	return n
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
