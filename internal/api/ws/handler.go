package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/protocol"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 16 << 20
)

// Request is one inbound frame
type Request struct {
	UUID  string          `json:"uuid"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler manages WebSocket connections
type Handler struct {
	router   *protocol.Router
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(router *protocol.Router, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		router: router,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// conn serializes writes; gorilla allows one concurrent writer
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// HandleConnection upgrades the request and serves frames until the peer leaves
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	cn := &conn{ws: ws}
	var inflight sync.WaitGroup
	defer ws.Close()
	defer inflight.Wait()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go h.keepalive(ctx, cn)

	ws.SetReadLimit(maxFrameSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	remote := c.ClientIP()
	h.logger.Debug("WebSocket connected", zap.String("client", remote))

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.String("client", remote), zap.Error(err))
			}
			return
		}

		var req Request
		if err := sonic.Unmarshal(raw, &req); err != nil || req.Event == "" {
			h.record("in", "invalid")
			h.reply(cn, &protocol.Envelope{
				UUID:   req.UUID,
				Status: protocol.StatusError,
				Data:   "malformed frame: expected {uuid, event, data}",
			})
			continue
		}
		h.record("in", h.label(req.Event))

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			env := h.router.Dispatch(protocol.NewContext(ctx, req.Event, req.UUID, req.Data))
			h.reply(cn, env)
		}()
	}
}

func (h *Handler) reply(cn *conn, env *protocol.Envelope) {
	out, err := sonic.Marshal(env)
	if err != nil {
		h.logger.Error("Failed to encode envelope", zap.String("event", env.Event), zap.Error(err))
		out, _ = sonic.Marshal(&protocol.Envelope{
			UUID:   env.UUID,
			Event:  env.Event,
			Status: protocol.StatusError,
			Data:   "failed to encode response",
		})
	}
	if err := cn.write(websocket.TextMessage, out); err != nil {
		h.logger.Debug("WebSocket write failed", zap.String("event", env.Event), zap.Error(err))
		return
	}
	h.record("out", h.label(env.Event))
}

// label bounds metric cardinality to registered events
func (h *Handler) label(event string) string {
	if h.router.Has(event) {
		return event
	}
	return "unknown"
}

func (h *Handler) keepalive(ctx context.Context, cn *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) record(direction, event string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, event)
	}
}
