package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tabmirror/backend/internal/domain/session"
	"github.com/tabmirror/backend/internal/infrastructure/logging"
	"github.com/tabmirror/backend/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin checks happen at the CORS layer
	},
}

// conn serializes writes to one WebSocket connection. The reader loop
// answers pings while broadcasts arrive from whichever goroutine fired
// the change signal, and gorilla/websocket forbids concurrent writers.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(msg map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(msg)
}

// Handler manages WebSocket connections for change notifications.
type Handler struct {
	mu      sync.Mutex
	conns   map[string]*conn
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewHandler creates a handler and registers it as the helper's change
// subscriber. Registration is last-write-wins on the helper side.
func NewHandler(helper *session.Helper, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	h := &Handler{
		conns:   make(map[string]*conn),
		metrics: metrics,
		log:     log,
	}
	helper.SetOnChange(h.broadcast)
	return h
}

// HandleConnection upgrades the request and keeps the connection until
// the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &conn{ws: ws}
	id := uuid.NewString()
	h.mu.Lock()
	h.conns[id] = cl
	h.mu.Unlock()
	h.metrics.WSConnections.Inc()

	defer func() {
		h.mu.Lock()
		delete(h.conns, id)
		h.mu.Unlock()
		h.metrics.WSConnections.Dec()
		ws.Close()
	}()

	cl.send(map[string]string{"type": "connected"})

	// Drain client messages; only ping is meaningful.
	for {
		var msg map[string]interface{}
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		if msg["type"] == "ping" {
			cl.send(map[string]string{"type": "pong"})
		}
	}
}

// broadcast sends the no-payload change signal to every connection.
func (h *Handler) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, cl := range h.conns {
		if err := cl.send(map[string]string{"type": "sessions_updated"}); err != nil {
			h.log.Warn("dropping websocket client", zap.String("id", id), zap.Error(err))
			cl.ws.Close()
			delete(h.conns, id)
		}
	}
}
