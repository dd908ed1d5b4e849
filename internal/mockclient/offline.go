package mockclient

import (
	"context"
	"fmt"

	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// Offline stands in for Client when no broker is reachable.
type Offline struct {
	// Cause is reported in every error, typically the connect failure.
	Cause error
}

func (o Offline) err() error {
	if o.Cause == nil {
		return ErrOffline
	}
	return fmt.Errorf("%w: %w", ErrOffline, o.Cause)
}

// StartServer always fails.
func (o Offline) StartServer(context.Context, string, int, int, int) error { return o.err() }

// StopServer always fails.
func (o Offline) StopServer(context.Context) error { return o.err() }

// StartMonitor always fails.
func (o Offline) StartMonitor(context.Context, string, int) error { return o.err() }

// StopMonitor always fails.
func (o Offline) StopMonitor(context.Context) error { return o.err() }

// GetWords always fails.
func (o Offline) GetWords(context.Context, register.Key, register.Address, int) ([]int, error) {
	return nil, o.err()
}

// SetWords always fails.
func (o Offline) SetWords(context.Context, register.Key, register.Address, []int) error {
	return o.err()
}

// SubscribeUpdates reports the push channel as unavailable.
func (o Offline) SubscribeUpdates(func(monitor.Update)) (func(), error) {
	return nil, fmt.Errorf("%w: %w", monitor.ErrChannelUnavailable, o.err())
}

// SubscribeStatus reports the push channel as unavailable.
func (o Offline) SubscribeStatus(func(string)) (func(), error) {
	return nil, fmt.Errorf("%w: %w", monitor.ErrChannelUnavailable, o.err())
}

var (
	_ monitor.Remote      = Offline{}
	_ monitor.PushChannel = Offline{}
	_ monitor.Remote      = (*Client)(nil)
	_ monitor.PushChannel = (*Client)(nil)
)
