package monitor

import (
	"context"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// Remote is the set of operations the protocol mock offers.
// Implementations must be safe for concurrent use; calls block until the
// mock answers or ctx ends.
type Remote interface {
	// StartServer starts the protocol listeners on the mock.
	StartServer(ctx context.Context, ip string, tcpPort, udpPort, timeoutMs int) error

	// StopServer stops the protocol listeners.
	StopServer(ctx context.Context) error

	// StartMonitor asks the mock to push updates for target ("D100") every intervalMs.
	StartMonitor(ctx context.Context, target string, intervalMs int) error

	// StopMonitor stops push updates.
	StopMonitor(ctx context.Context) error

	// GetWords reads up to count words from key/addr. The result may be shorter.
	GetWords(ctx context.Context, key register.Key, addr register.Address, count int) ([]int, error)

	// SetWords writes words from key/addr onwards.
	SetWords(ctx context.Context, key register.Key, addr register.Address, words []int) error
}

// Update is one register update notification: Values[i] belongs at Addr+i.
type Update struct {
	Key    register.Key
	Addr   register.Address
	Values []int
}

// PushChannel delivers notifications from the mock.
// Handlers run on the channel's own goroutines.
type PushChannel interface {
	// SubscribeUpdates registers handler for register updates.
	// It returns ErrChannelUnavailable when updates cannot be received.
	SubscribeUpdates(handler func(Update)) (unsubscribe func(), err error)

	// SubscribeStatus registers handler for free-text server status.
	SubscribeStatus(handler func(status string)) (unsubscribe func(), err error)
}

// Preferences persists the engine's user settings between runs.
type Preferences interface {
	// DisplayFormat returns the saved format; ok is false when none is saved.
	DisplayFormat(ctx context.Context) (f format.Format, ok bool, err error)
	SetDisplayFormat(ctx context.Context, f format.Format) error

	AutoStart(ctx context.Context) (bool, error)
	SetAutoStart(ctx context.Context, enabled bool) error
}

// History records register activity outside the engine. Calls must not block.
type History interface {
	RecordWord(ref register.Ref, value uint16)
	RecordWrite(ref register.Ref, f format.Format, words []uint16)
}

// Renderer materialises rows. Render runs on the Loop.
type Renderer interface {
	Render(row RowView)
}

// Selector moves the row selection. Select runs on the Loop and returns
// ErrRenderTargetMissing when ref has no row yet.
type Selector interface {
	Select(ref register.Ref) error
}

// Logger defines the logging interface for the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
