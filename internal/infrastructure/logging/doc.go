// Package logging provides structured logging for melsecmon.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the engine and its adapters.
//
// # Features
//
//   - JSON output for machine parsing, text output for reading
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - File output, required while the terminal UI owns the screen
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "file"     # stdout, stderr, file
//	  file:
//	    path: "./data/melsecmon.log"
//
// # Usage
//
//	logger, closer, err := logging.Open(cfg.Logging, "1.0.0")
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	logger.Info("monitor started", "target", "D100")
package logging
