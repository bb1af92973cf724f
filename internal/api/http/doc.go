// Package http exposes the event router over plain HTTP.
//
// Routes:
//   - POST /file/:action   dispatch "file/<action>" with the JSON body as payload
//   - GET  /instances      registered instances
//   - GET  /health         liveness and task counters
//   - GET  /metrics        Prometheus exposition
//   - GET  /metrics/json   aggregated JSON snapshot
//
// The response body is always the protocol envelope. The HTTP status
// mirrors the failure kind so plain HTTP clients can branch on it.
package http
