// Package server wires the file gateway daemon together.
//
// Server Lifecycle:
//  1. Create the Prometheus registry and metrics
//  2. Load the instance registry from the seed file, if configured
//  3. Build the admission controller, task runner and event router
//  4. Register the file service on the router
//  5. Set up the gin engine: middleware, HTTP routes, WebSocket stream
//  6. Serve until Shutdown, then drain background file tasks
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, logger)
//	go srv.Run()
//	defer srv.Shutdown(ctx)
package server
