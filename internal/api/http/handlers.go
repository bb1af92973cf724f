package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/domain/filetask"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/domain/instance"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/protocol"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	router    *protocol.Router
	registry  *instance.Registry
	admission *filetask.Controller
	runner    *filetask.Runner
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	started   time.Time
	maxBody   int64
}

// NewHandlers creates a new handlers instance
func NewHandlers(router *protocol.Router, registry *instance.Registry, admission *filetask.Controller, runner *filetask.Runner, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		router:    router,
		registry:  registry,
		admission: admission,
		runner:    runner,
		logger:    logger,
		started:   time.Now(),
		maxBody:   DefaultMaxBody,
	}
}

// WithMetrics adds metrics to the JSON snapshot endpoint
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// WithMaxBody bounds the request body accepted by event endpoints
func (h *Handlers) WithMaxBody(n int64) *Handlers {
	if n > 0 {
		h.maxBody = n
	}
	return h
}

// Root handles the root endpoint
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "filegate",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	perInstance, global := h.admission.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"instances": h.registry.Count(),
		"fileTasks": gin.H{
			"global":      global,
			"perInstance": perInstance,
			"max":         h.admission.Max(),
			"background":  len(h.runner.Active("")),
		},
		"events": h.router.Events(""),
	})
}

// ListInstances lists registered instances
func (h *Handlers) ListInstances(c *gin.Context) {
	instances := h.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"instances": instances,
		"total":     len(instances),
	})
}

// GetInstance returns one instance
func (h *Handlers) GetInstance(c *gin.Context) {
	inst, err := h.registry.Get(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inst)
}
