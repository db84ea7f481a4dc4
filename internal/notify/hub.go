package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/observability"
)

const (
	hubWriteWait  = 10 * time.Second
	hubPongWait   = 60 * time.Second
	hubPingEvery  = (hubPongWait * 9) / 10
	hubClientSize = 32
)

// HubPath is the route the hub is mounted on.
const HubPath = "/ws/notifications"

var hubUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Hub broadcasts notifications to connected WebSocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
	logger  *zap.Logger
}

type hubClient struct {
	conn *websocket.Conn
	send chan Notification
	done chan struct{}
	once sync.Once
}

func (c *hubClient) close() {
	c.once.Do(func() { close(c.done) })
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		logger:  logger,
	}
}

// Compile-time interface check.
var _ Sink = (*Hub)(nil)

// Name returns the sink name.
func (h *Hub) Name() string { return "websocket" }

// Send queues n for every connected client. Slow clients drop their oldest entry.
func (h *Hub) Send(_ context.Context, n Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return ErrDisabled
	}
	for c := range h.clients {
		push(c.send, n)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		c.close()
	}
}

// ServeHTTP upgrades the request and streams notifications until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := hubUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &hubClient{
		conn: conn,
		send: make(chan Notification, hubClientSize),
		done: make(chan struct{}),
	}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(hubWriteWait))
		return
	}
	defer h.unregister(c)

	_ = conn.SetReadDeadline(time.Now().Add(hubPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(hubPongWait))
	})

	// Reader: clients only send control frames; any read error ends the session.
	go func() {
		defer c.close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(hubPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case n := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(hubWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(hubWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	observability.UpdateWSClients(len(h.clients))
	h.logger.Info("notification client connected", zap.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c)
	c.close()
	observability.UpdateWSClients(len(h.clients))
	h.logger.Info("notification client disconnected", zap.Int("clients", len(h.clients)))
}

// push enqueues n, dropping the oldest queued entry when the buffer is full.
func push(ch chan Notification, n Notification) {
	select {
	case ch <- n:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- n:
	default:
	}
}
