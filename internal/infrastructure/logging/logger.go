package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nerrad567/melsec-monitor/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "melsecmon"

const (
	logDirPerm  = 0o750
	logFilePerm = 0o640
)

// Logger is a slog.Logger carrying the service and version fields.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger on stdout or stderr.
//
// The "file" output needs a file handle, which only Open provides; New
// writes such loggers to stderr so early startup output is not lost.
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Application version for default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	w := io.Writer(os.Stdout)
	if out := strings.ToLower(cfg.Output); out == "stderr" || out == "file" {
		w = os.Stderr
	}
	return newLogger(w, cfg, version)
}

// Open creates a Logger for any configured output, including "file". The
// log directory is created when missing.
//
// Returns:
//   - *Logger: Configured logger
//   - io.Closer: Releases the log file; a no-op for stdout and stderr
//   - error: If the log file cannot be opened
func Open(cfg config.LoggingConfig, version string) (*Logger, io.Closer, error) {
	if !strings.EqualFold(cfg.Output, "file") {
		return New(cfg, version), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File.Path), logDirPerm); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFilePerm)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return newLogger(f, cfg, version), f, nil
}

// Default is the logger used before configuration is loaded: JSON at info
// level on stderr, leaving stdout to the terminal UI.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stderr"}, "dev")
}

// With returns a child Logger with extra default attributes.
//
// Example:
//
//	engineLog := logger.With("component", "engine")
//	engineLog.Info("target changed", "target", "D100")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func newLogger(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(h).With("service", serviceName, "version", version)}
}

// parseLevel maps debug, info, warn/warning and error (any case) to slog
// levels. Anything else is info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
