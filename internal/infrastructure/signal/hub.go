package signal

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"mosaic/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is the envelope pushed to dashboard clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// client pairs a connection with its outbound queue. All frames, pings
// included, go through the queue so the connection has exactly one writer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts slot state transitions to connected dashboard clients.
// Clients are write-only; a client that cannot keep up is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	writeTimeout time.Duration
	pingInterval time.Duration
	logger       *zap.Logger
	onClients    func(n int)
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[*client]struct{}),
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
		logger:       logger,
	}
}

// SetPingInterval sets the keepalive ping interval for new connections.
func (h *Hub) SetPingInterval(interval time.Duration) {
	h.pingInterval = interval
}

// OnClientCountChange registers a callback fired when a client connects or
// disconnects, typically the metrics gauge.
func (h *Hub) OnClientCountChange(fn func(n int)) {
	h.mu.Lock()
	h.onClients = fn
	h.mu.Unlock()
}

// HandleWebSocket upgrades the request and keeps the connection registered
// until the client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, 16)}
	h.register(cl)
	defer h.unregister(cl)

	go h.writePump(cl)

	// Reader loop only services control frames; the dashboard never sends
	// data over this socket.
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// BroadcastSlotStatus pushes one slot's state transition to every client.
func (h *Hub) BroadcastSlotStatus(status domain.SlotStatus) {
	h.broadcast("slot_status", status)
}

func (h *Hub) broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal broadcast payload", zap.Error(err))
		return
	}
	frame, err := json.Marshal(Message{Type: msgType, Payload: data})
	if err != nil {
		h.logger.Error("failed to marshal broadcast frame", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for cl := range h.clients {
		select {
		case cl.send <- frame:
		default:
			// Queue full: the client is not draining, drop it.
			h.dropLocked(cl)
		}
	}
	h.notifyCountLocked()
}

// writePump is the single writer for one connection. It drains the send
// queue and interleaves keepalive pings until the queue closes or a write
// fails.
func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-cl.send:
			if !ok {
				cl.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(h.writeTimeout))
				cl.conn.Close()
				return
			}
			cl.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := cl.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.unregister(cl)
				cl.conn.Close()
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(cl)
				cl.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.notifyCountLocked()
	h.mu.Unlock()
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	h.dropLocked(cl)
	h.notifyCountLocked()
	h.mu.Unlock()
}

// dropLocked removes a client and closes its queue, which ends the write
// pump. Sends and the close both happen under h.mu, so a broadcast can
// never race the channel close.
func (h *Hub) dropLocked(cl *client) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

func (h *Hub) notifyCountLocked() {
	if h.onClients != nil {
		h.onClients(len(h.clients))
	}
}

// Close drops every client connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for cl := range h.clients {
		h.dropLocked(cl)
	}
	h.notifyCountLocked()
}
