package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/monitoring"
)

// MetricsSnapshot is the aggregated JSON view of the daemon
type MetricsSnapshot struct {
	Timestamp time.Time                   `json:"timestamp"`
	Daemon    *monitoring.MetricsSnapshot `json:"daemon,omitempty"`
	FileTasks FileTaskSnapshot            `json:"fileTasks"`
	Summary   MetricsSummary              `json:"summary"`
}

// FileTaskSnapshot reports archive admission state
type FileTaskSnapshot struct {
	Max         int            `json:"max"`
	Global      int            `json:"global"`
	PerInstance map[string]int `json:"perInstance"`
	Background  int            `json:"background"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests    int64   `json:"total_requests"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
	Instances        int     `json:"instances"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// MetricsJSON returns the aggregated metrics snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	perInstance, global := h.admission.Snapshot()
	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		FileTasks: FileTaskSnapshot{
			Max:         h.admission.Max(),
			Global:      global,
			PerInstance: perInstance,
			Background:  len(h.runner.Active("")),
		},
		Summary: MetricsSummary{
			Instances:     h.registry.Count(),
			UptimeSeconds: time.Since(h.started).Seconds(),
		},
	}

	if h.metrics != nil {
		daemon := h.metrics.Snapshot()
		snapshot.Daemon = &daemon
		snapshot.Summary.TotalRequests = daemon.TotalRequests
		if daemon.RequestCount > 0 {
			snapshot.Summary.AverageLatencyMs = daemon.TotalDuration / float64(daemon.RequestCount) * 1000
			snapshot.Summary.ErrorRate = float64(daemon.TotalErrors) / float64(daemon.RequestCount)
		}
	}

	c.JSON(http.StatusOK, snapshot)
}

// PrometheusHandler serves the Prometheus exposition of gatherer
func PrometheusHandler(gatherer prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
