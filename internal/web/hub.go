package web

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sweeney/grid-status/internal/timeline"
)

const (
	liveWriteTimeout = 5 * time.Second
	liveSendBuffer   = 8
)

var liveUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// LiveUpdate is pushed to websocket clients on every transition.
type LiveUpdate struct {
	State string    `json:"state"`
	Since time.Time `json:"since"`
	Value int       `json:"value"`
}

// NewLiveUpdate builds an update from a state label.
func NewLiveUpdate(label string, since time.Time) LiveUpdate {
	return LiveUpdate{State: label, Since: since, Value: timeline.Encode(label)}
}

type liveClient struct {
	send chan LiveUpdate
}

// Hub fans transitions out to websocket clients. Slow clients are dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*liveClient]struct{}
	closed  bool
	onCount func(int)
}

// NewHub creates a Hub. onCount, if non-nil, is told the client count
// whenever it changes.
func NewHub(onCount func(int)) *Hub {
	return &Hub{
		clients: make(map[*liveClient]struct{}),
		onCount: onCount,
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// notify must be called with mu held so counts arrive in order.
func (h *Hub) notify(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (h *Hub) add(c *liveClient) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	h.notify(len(h.clients))
	h.mu.Unlock()
	return true
}

func (h *Hub) remove(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.notify(len(h.clients))
	}
}

// Broadcast queues u for every client without blocking.
func (h *Hub) Broadcast(u LiveUpdate) {
	h.mu.Lock()
	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- u:
		default:
			delete(h.clients, c)
			close(c.send)
			dropped++
		}
	}
	if dropped > 0 {
		h.notify(len(h.clients))
	}
	h.mu.Unlock()

	if dropped > 0 {
		log.Printf("web: dropped %d slow live clients", dropped)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.notify(0)
	h.mu.Unlock()
}

func (h *Hub) serve(conn *websocket.Conn, initial *LiveUpdate) {
	defer conn.Close()

	c := &liveClient{send: make(chan LiveUpdate, liveSendBuffer)}
	if initial != nil {
		c.send <- *initial
	}
	if !h.add(c) {
		return
	}
	defer h.remove(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case u, ok := <-c.send:
			if !ok {
				return
			}
			if err := writeLive(conn, u); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeLive(conn *websocket.Conn, u LiveUpdate) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return conn.WriteJSON(u)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	var initial *LiveUpdate
	if snap := s.tracker.Snapshot(); snap.Known() {
		u := NewLiveUpdate(snap.Grid.Label(), snap.Since)
		initial = &u
	}
	s.hub.serve(conn, initial)
}
