package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
	"github.com/annalza/mint-stock-flow/internal/platform/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub pushes committed domain events to connected browsers so they can re-render.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.RWMutex
	logger    observability.Logger
}

// NewHub creates a hub. Call Run to start delivering.
func NewHub(logger observability.Logger) *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
		logger:    logger,
	}
}

// Run delivers broadcasts until ctx ends, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			var dead []*websocket.Conn
			h.mutex.RLock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
					dead = append(dead, client)
				}
			}
			h.mutex.RUnlock()
			for _, client := range dead {
				h.RemoveClient(client)
			}
		}
	}
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mutex.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mutex.Unlock()
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// BroadcastMessage queues message for every client. A full queue drops it.
func (h *Hub) BroadcastMessage(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("⚠️ Websocket broadcast queue full, dropping message")
	}
}

func (h *Hub) ClientsCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Publish implements events.Publisher.
func (h *Hub) Publish(_ context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.BroadcastMessage(payload)
	return nil
}

// ServeWS upgrades the request and keeps the connection registered until the client
// goes away.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("⚠️ Websocket upgrade failed", zap.Error(err))
		return
	}

	h.AddClient(conn)
	h.logger.Info("🔌 Websocket client connected", zap.Int("clients", h.ClientsCount()))

	defer func() {
		h.RemoveClient(conn)
		h.logger.Info("🔌 Websocket client disconnected", zap.Int("clients", h.ClientsCount()))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("⚠️ Websocket error", zap.Error(err))
			}
			break
		}
	}
}
