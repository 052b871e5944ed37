// Package logging provides structured logging for the irrigation services.
//
// This package wraps Go's standard log/slog package so that the daemon,
// the simulator and every library package log with the same shape.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - stdout, stderr or append-only file output
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "/var/log/irrigationd.log"
//
// # Usage
//
//	logger, err := logging.New(cfg.Logging, "irrigationd", version)
//	if err != nil { ... }
//	defer logger.Close()
//	logger.Info("polled device", "device_id", id)
//
// Never log the cloud bearer token or broker passwords.
package logging
