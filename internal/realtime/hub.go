package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hireloop/hireloop/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16 // 64 KiB; clients only send control frames

	// sessionBufferSize must hold a full offline backlog replay (queue cap
	// 100) before the write loop drains, or reconnect replays would trip the
	// backpressure drop path on a healthy connection.
	sessionBufferSize = 128
)

// ConnectListener is invoked when a user transitions from zero to at least one
// active connection. The engine uses it to replay the user's offline backlog.
type ConnectListener func(userID string)

// Hub fans events out to each user's active websocket sessions. It doubles as
// the presence registry: a user is reachable for live delivery exactly when
// they hold at least one registered connection.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[*connection]struct{}
	onConnect ConnectListener
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

// NewHub constructs a hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*connection]struct{}),
		log:     logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Allow same-origin requests and explicit localhost development.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
	}
}

// OnConnect registers the listener invoked on a user's first connection.
// Must be called during wiring, before the hub serves traffic.
func (h *Hub) OnConnect(listener ConnectListener) {
	h.onConnect = listener
}

// Serve upgrades the HTTP connection to a WebSocket and registers the session
// under the supplied user ID. It blocks until the connection closes.
func (h *Hub) Serve(userID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &connection{
		hub:    h,
		socket: conn,
		userID: userID,
		send:   make(chan []byte, sessionBufferSize),
	}

	first := h.register(client)
	if first && h.onConnect != nil {
		h.onConnect(userID)
	}

	go client.writeLoop()
	client.readLoop()
}

// IsOnline reports whether the user holds at least one active connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID]) > 0
}

// Publish delivers a JSON-encoded event to every active session of the user.
// Sessions that cannot keep up are dropped rather than blocking the caller.
func (h *Hub) Publish(userID string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			h.log.Warn("dropping backpressured session", zap.String("user_id", userID))
			go client.close()
		}
	}
	return nil
}

// register adds the connection and reports whether it is the user's first.
func (h *Hub) register(client *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[client.userID]
	if conns == nil {
		conns = make(map[*connection]struct{})
		h.clients[client.userID] = conns
	}
	first := len(conns) == 0
	conns[client] = struct{}{}
	return first
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns := h.clients[client.userID]; conns != nil {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

type connection struct {
	hub    *Hub
	socket *websocket.Conn
	userID string
	send   chan []byte
	once   sync.Once
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Inbound frames are ignored; reading drains client pings and
		// detects closure.
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.send)
		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
