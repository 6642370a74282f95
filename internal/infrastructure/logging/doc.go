// Package logging provides structured logging for the ulink sender.
//
// It wraps log/slog so every component logs with the same handler,
// level and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("transmission started", "id", id, "payload_length", n)
//
// # Security
//
// Payloads usually carry Wi-Fi credentials. Log the payload length and
// checksum, never the bytes.
package logging
