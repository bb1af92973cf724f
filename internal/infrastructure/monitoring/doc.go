/*
Package monitoring provides metrics collection for the file gateway.

# Overview

This package implements Prometheus-based metrics for the daemon: HTTP
requests, protocol events, archive task admission and duration, and
WebSocket traffic.

# Features

- HTTP request metrics (latency, throughput, size)
- Event dispatch metrics (per event, per status)
- File task metrics (in-flight gauge, admissions, background outcomes)
- WebSocket connection metrics
- Uptime

# Usage

	// Create metrics collector on its own registry
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record protocol events
	router.Observe(metrics.RecordEvent)

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
