package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Event metrics
	EventsTotal   *prometheus.CounterVec
	EventDuration *prometheus.HistogramVec

	// File task metrics
	FileTasksInFlight prometheus.Gauge
	FileTaskAdmission *prometheus.CounterVec
	FileTaskDuration  *prometheus.HistogramVec
	FileTaskResults   *prometheus.CounterVec

	// Instance metrics
	InstancesRegistered prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	TotalEvents   int64   `json:"total_events"`
	FailedEvents  int64   `json:"failed_events"`
	TasksAdmitted int64   `json:"tasks_admitted"`
	TasksRejected int64   `json:"tasks_rejected"`
	TasksFailed   int64   `json:"tasks_failed"`
	TotalDuration float64 `json:"total_duration_seconds"`
	RequestCount  int64   `json:"request_count"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector registered on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filegate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filegate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filegate_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filegate_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Event metrics
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filegate_events_total",
				Help: "Total number of dispatched protocol events",
			},
			[]string{"event", "status"},
		),
		EventDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filegate_event_duration_seconds",
				Help:    "Protocol event handling duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"event"},
		),

		// File task metrics
		FileTasksInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filegate_file_tasks_in_flight",
				Help: "Number of archive tasks currently running across all instances",
			},
		),
		FileTaskAdmission: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filegate_file_task_admissions_total",
				Help: "Archive task admission decisions",
			},
			[]string{"result"},
		),
		FileTaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filegate_file_task_duration_seconds",
				Help:    "Background file task duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300, 900},
			},
			[]string{"kind"},
		),
		FileTaskResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filegate_file_task_results_total",
				Help: "Background file task outcomes",
			},
			[]string{"kind", "status"},
		),

		// Instance metrics
		InstancesRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filegate_instances_registered",
				Help: "Number of instances in the registry",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filegate_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filegate_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "filegate_uptime_seconds",
			Help: "Daemon uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordEvent records one dispatched protocol event
func (m *Metrics) RecordEvent(event string, status int, duration time.Duration) {
	label := "ok"
	if status != 200 {
		label = "error"
	}
	m.EventsTotal.WithLabelValues(event, label).Inc()
	m.EventDuration.WithLabelValues(event).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalEvents++
	if label == "error" {
		m.snapshot.FailedEvents++
	}
	m.mu.Unlock()
}

// RecordAdmission records an archive admission decision
func (m *Metrics) RecordAdmission(admitted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if admitted {
		m.FileTaskAdmission.WithLabelValues("admitted").Inc()
		m.snapshot.TasksAdmitted++
		return
	}
	m.FileTaskAdmission.WithLabelValues("rejected").Inc()
	m.snapshot.TasksRejected++
}

// SetFileTasksInFlight sets the global in-flight archive task count
func (m *Metrics) SetFileTasksInFlight(count int) {
	m.FileTasksInFlight.Set(float64(count))
}

// RecordTaskResult records the outcome of a background file task
func (m *Metrics) RecordTaskResult(kind string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.FileTaskResults.WithLabelValues(kind, status).Inc()
	m.FileTaskDuration.WithLabelValues(kind).Observe(duration.Seconds())

	if err != nil {
		m.mu.Lock()
		m.snapshot.TasksFailed++
		m.mu.Unlock()
	}
}

// SetInstancesRegistered sets the number of registered instances
func (m *Metrics) SetInstancesRegistered(count int) {
	m.InstancesRegistered.Set(float64(count))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns a copy of the tracked values
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
