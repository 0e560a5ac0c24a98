// Package ws streams terrain snapshots to websocket clients.
package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"heightfield/internal/terrain"
)

// DefaultQueue is the per-client frame queue depth.
const DefaultQueue = 4

type client struct {
	id   uint64
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() { c.once.Do(func() { close(c.done) }) }

// offer enqueues frame, evicting the oldest queued frame while the queue is full.
func (c *client) offer(frame []byte) (dropped bool) {
	for {
		select {
		case c.out <- frame:
			return dropped
		default:
		}
		select {
		case <-c.out:
			dropped = true
		default:
		}
	}
}

// Hub fans snapshot frames out to every connected client. A client that
// falls behind loses its oldest queued frames; Broadcast never blocks on the
// network.
type Hub struct {
	log      *slog.Logger
	queue    int
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]*client
	last    []byte
	closed  bool
	dropped atomic.Uint64
}

// NewHub creates a hub with per-client queues of depth queue. Zero means
// DefaultQueue; a nil logger means slog.Default().
func NewHub(log *slog.Logger, queue int) *Hub {
	if log == nil {
		log = slog.Default()
	}
	if queue < 1 {
		queue = DefaultQueue
	}
	return &Hub{
		log:   log,
		queue: queue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: make(map[uint64]*client),
	}
}

// Handler upgrades a request and streams frames until the client leaves or
// the hub closes. A new client first receives the latest frame, if any.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{id: h.nextID.Add(1), out: make(chan []byte, h.queue), done: make(chan struct{})}
		if !h.join(c) {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub closed"), time.Now().Add(time.Second))
			return
		}
		defer h.leave(c)
		h.log.Debug("ws client joined", "id", c.id, "remote", r.RemoteAddr)

		// Reader: clients send nothing meaningful; a read error means they left.
		go func() {
			defer c.stop()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-c.done:
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
				return
			case b := <-c.out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
					h.log.Debug("ws write failed", "id", c.id, "err", err)
					return
				}
			}
		}
	}
}

func (h *Hub) join(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	if h.last != nil {
		c.out <- h.last
	}
	return true
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.stop()
	h.log.Debug("ws client left", "id", c.id)
}

// Broadcast queues snapshot seq for every client.
func (h *Hub) Broadcast(seq int, m *terrain.Matrix) error {
	frame, err := EncodeFrame(seq, m)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.last = frame
	for _, c := range h.clients {
		if c.offer(frame) {
			h.dropped.Add(1)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many queued frames were discarded for slow clients.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, c := range h.clients {
		c.stop()
	}
}
