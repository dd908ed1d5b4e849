package monitor

import (
	"fmt"
	"sync"
	"time"
)

// DefaultDiagLogSize is the number of diagnostic lines kept.
const DefaultDiagLogSize = 200

// DiagLog is a bounded list of timestamped diagnostic lines, newest first.
//
// Every entry is also sent to the structured logger.
//
// Thread Safety:
//   - All methods are safe for concurrent use; the UI reads it off the Loop.
type DiagLog struct {
	mu     sync.RWMutex
	lines  []string
	size   int
	now    func() time.Time
	logger Logger
}

// NewDiagLog creates a log holding at most size lines.
func NewDiagLog(size int, logger Logger) *DiagLog {
	if size <= 0 {
		size = DefaultDiagLogSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &DiagLog{
		size:   size,
		now:    time.Now,
		logger: logger,
	}
}

// Add records an informational line.
func (d *DiagLog) Add(msg string, args ...any) {
	d.logger.Info(msg, args...)
	d.push(msg, args)
}

// AddError records a failure line.
func (d *DiagLog) AddError(msg string, err error, args ...any) {
	args = append(args, "error", err)
	d.logger.Warn(msg, args...)
	d.push(msg, args)
}

// Lines returns a copy of the log, newest first.
func (d *DiagLog) Lines() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

func (d *DiagLog) push(msg string, args []any) {
	line := d.now().UTC().Format(time.RFC3339Nano) + " " + msg
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append([]string{line}, d.lines...)
	if len(d.lines) > d.size {
		d.lines = d.lines[:d.size]
	}
}
