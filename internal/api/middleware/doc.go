// Package middleware provides HTTP middleware for the file gateway.
//
// Middleware stack:
//   - RequestID: X-Request-ID propagation, generated when absent
//   - AccessLog: one zap line per request
//   - CORS: cross-origin resource sharing with configurable origins
//   - RateLimit: per-IP token bucket rate limiting with idle eviction
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.AccessLog(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
