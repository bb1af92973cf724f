// Package logging provides structured logging using uber/zap.
//
// Two output modes:
//   - Production: JSON lines for machine parsing
//   - Development: colored console output
//
// Components take a *zap.Logger; use Logger.Component to tag their lines.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "debug"})
//	logger.Component("files").Info("Session opened", zap.String("instance", id))
package logging
