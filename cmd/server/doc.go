// Package main is the entry point of the file gateway daemon.
//
// The daemon serves instance-scoped file operations (list, mkdir, copy,
// move, delete, edit, compress) to a panel over HTTP and WebSocket, with
// a per-instance ceiling on concurrent archive tasks.
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags override the environment
//
// Usage:
//
//	# Production mode
//	./server -port 23333 -instances /etc/filegate/instances.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown, waiting up to 30s for file tasks
package main
