// hub.go — WebSocket fan-out of simulated host events to preview pages.
package devhost

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/MCPJam/apps-sdk-everything/internal/bridge"
	"github.com/MCPJam/apps-sdk-everything/internal/util"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer = 32
	writeWait  = 5 * time.Second
)

// Hub broadcasts every event the Host dispatches to connected WebSocket
// clients. Clients may push {"globals":{...}} frames back, which become
// SetGlobals calls. The first frame a client receives is the full snapshot.
type Hub struct {
	host     *Host
	logger   *zap.Logger
	upgrader websocket.Upgrader
	remove   func()

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub subscribes to host and returns a Hub ready to serve.
func NewHub(host *Host, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		host:    host,
		logger:  logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			// Preview pages are served from the same process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	h.remove = host.AddListener(h.broadcast)
	return h
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(detail any) {
	msg, err := json.Marshal(detail)
	if err != nil {
		h.logger.Warn("encode host event", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping host event for slow client", zap.String("remote", c.conn.RemoteAddr().String()))
		}
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects
// or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	// Register before reading the snapshot: an event dispatched in between is
	// then either in the snapshot or broadcast to c after it.
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	initial, err := json.Marshal(map[string]any{"globals": h.host.Globals()})
	if err != nil {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.send <- initial
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	done := make(chan struct{})
	util.SafeGo(h.logger, func() {
		defer close(done)
		h.writePump(c)
	})

	h.readLoop(c)

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	<-done
	_ = conn.Close()
}

func (h *Hub) readLoop(c *client) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		ev, ok := bridge.ParseChangeEvent(json.RawMessage(msg))
		if !ok {
			h.logger.Debug("ignoring malformed host frame", zap.Int("bytes", len(msg)))
			continue
		}
		h.host.SetGlobals(ev.Globals)
	}
}

func (h *Hub) writePump(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			// Unblock the read loop so the handler can clean up.
			_ = c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Close unsubscribes from the host, disconnects every client and waits for
// their handlers to return.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for c := range h.clients {
		_ = c.conn.Close()
	}
	h.mu.Unlock()

	h.remove()
	h.wg.Wait()
}
