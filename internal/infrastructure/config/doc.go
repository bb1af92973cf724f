// Package config provides 12-factor configuration for the file gateway daemon.
//
// Configuration is loaded from environment variables with defaults.
// CLI flags in cmd/server override the port and the instances file.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//   - Files: archive task ceiling, listing and edit limits, entry encoding
//   - Instances: seed file for the instance registry
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Listening on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - MAX_FILE_TASK, FILE_PAGE_SIZE, FILE_MAX_EDIT_SIZE, FILE_DEFAULT_CODE
//   - INSTANCES_FILE
package config
