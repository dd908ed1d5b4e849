package mockclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/melsec-monitor/internal/register"
)

// StartServer starts the mock's TCP/UDP listeners.
func (c *Client) StartServer(ctx context.Context, ip string, tcpPort, udpPort, timeoutMs int) error {
	_, err := c.call(ctx, ActionStartMock, startMockParams{
		IP:         ip,
		TCPPort:    tcpPort,
		UDPPort:    udpPort,
		TimAwaitMs: timeoutMs,
	})
	return err
}

// StopServer stops the mock's listeners.
func (c *Client) StopServer(ctx context.Context) error {
	_, err := c.call(ctx, ActionStopMock, nil)
	return err
}

// StartMonitor asks the mock to push the block at target every intervalMs.
func (c *Client) StartMonitor(ctx context.Context, target string, intervalMs int) error {
	_, err := c.call(ctx, ActionStartMonitor, startMonitorParams{Target: target, IntervalMs: intervalMs})
	return err
}

// StopMonitor stops pushed updates.
func (c *Client) StopMonitor(ctx context.Context) error {
	_, err := c.call(ctx, ActionStopMonitor, nil)
	return err
}

// GetWords reads up to count words. The mock answers with a bare JSON array
// of numbers; an absent data field reads as no words.
func (c *Client) GetWords(ctx context.Context, key register.Key, addr register.Address, count int) ([]int, error) {
	data, err := c.call(ctx, ActionGetWords, getWordsParams{Key: string(key), Addr: uint32(addr), Count: count})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var words []int
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("%w: get_words data: %w", ErrBadResponse, err)
	}
	return words, nil
}

// SetWords writes words starting at key/addr.
func (c *Client) SetWords(ctx context.Context, key register.Key, addr register.Address, words []int) error {
	_, err := c.call(ctx, ActionSetWords, setWordsParams{Key: string(key), Addr: uint32(addr), Words: words})
	return err
}
