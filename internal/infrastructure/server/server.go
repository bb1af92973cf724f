package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/AgentOS/daemon/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/domain/files"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/domain/filetask"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/domain/instance"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/protocol"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	router     *protocol.Router
	registry   *instance.Registry
	admission  *filetask.Controller
	runner     *filetask.Runner
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing file gateway",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("max_file_task", cfg.Files.MaxTasks),
	)

	// Metrics first, other components report into them
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(promRegistry)

	registry := instance.NewRegistry()
	if cfg.Instances.File != "" {
		n, err := registry.LoadFile(cfg.Instances.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load instances: %w", err)
		}
		logger.Info("Loaded instances", zap.Int("count", n), zap.String("file", cfg.Instances.File))
	} else {
		logger.Warn("No instances file configured, registry is empty")
	}
	metrics.SetInstancesRegistered(registry.Count())

	if cfg.Files.MaxTasks <= 0 {
		logger.Warn("Archive tasks are disabled", zap.Int("max_file_task", cfg.Files.MaxTasks))
	}
	admission := filetask.NewController(cfg.Files.MaxTasks).WithMetrics(metrics)
	runner := filetask.NewRunner(logger.Component("filetask")).WithMetrics(metrics)

	router := protocol.NewRouter(logger.Component("protocol"))
	router.Observe(metrics.RecordEvent)

	sessions := files.NewSessionFactory(registry, cfg.Files.SessionOptions())
	files.NewService(registry, sessions, admission, runner, logger.Component("files")).Register(router)
	logger.Info("File service registered", zap.Strings("events", router.Events(files.Namespace)))

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	// Add middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog(logger.Component("http")))
	engine.Use(monitoring.Middleware(metrics))
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.CORS.Origins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		engine.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(router, registry, admission, runner, logger.Component("http")).
		WithMetrics(metrics).
		WithMaxBody(cfg.Files.MaxEditSize + api.DefaultMaxBody)
	wsHandler := ws.NewHandler(router, logger.Component("ws")).WithMetrics(metrics)

	// Register routes
	engine.GET("/", handlers.Root)
	engine.GET("/health", handlers.Health)

	// Instances
	engine.GET("/instances", handlers.ListInstances)
	engine.GET("/instances/:uuid", handlers.GetInstance)

	// File operations
	engine.POST("/file/:action", handlers.FileEvent)

	// WebSocket
	engine.GET("/stream", wsHandler.HandleConnection)

	// Metrics endpoints
	engine.GET("/metrics", api.PrometheusHandler(promRegistry))
	engine.GET("/metrics/json", handlers.MetricsJSON)

	logger.Info("Server initialized successfully")

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router:    router,
		registry:  registry,
		admission: admission,
		runner:    runner,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Registry returns the instance registry
func (s *Server) Registry() *instance.Registry {
	return s.registry
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, then waits for running file tasks
// until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	if active := len(s.runner.Active("")); active > 0 {
		s.logger.Info("Waiting for file tasks", zap.Int("active", active))
	}
	if err := s.runner.Drain(ctx); err != nil {
		s.logger.Warn("File tasks abandoned at shutdown", zap.Error(err))
		return err
	}

	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
