package mockclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/melsec-monitor/internal/infrastructure/mqtt"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// SubscribeUpdates delivers pushed register updates to handler. It fails
// with monitor.ErrChannelUnavailable when the topic cannot be subscribed.
func (c *Client) SubscribeUpdates(handler func(monitor.Update)) (func(), error) {
	topic := mqtt.Topics{}.MonitorEvents()
	err := c.transport.Subscribe(topic, c.qos, func(_ string, payload []byte) error {
		var ev MonitorEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("%w: monitor event: %w", ErrBadResponse, err)
		}
		handler(monitor.Update{
			Key:    register.Key(strings.ToUpper(ev.Key)),
			Addr:   register.Address(ev.Addr),
			Values: ev.Vals,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", monitor.ErrChannelUnavailable, err)
	}
	return c.unsubscriber(topic), nil
}

// SubscribeStatus delivers the mock's status text. The payload may be a
// JSON string or bare text.
func (c *Client) SubscribeStatus(handler func(string)) (func(), error) {
	topic := mqtt.Topics{}.ServerStatusEvents()
	err := c.transport.Subscribe(topic, c.qos, func(_ string, payload []byte) error {
		handler(statusText(payload))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", monitor.ErrChannelUnavailable, err)
	}
	return c.unsubscriber(topic), nil
}

func (c *Client) unsubscriber(topic string) func() {
	return func() {
		if err := c.transport.Unsubscribe(topic); err != nil {
			c.mu.Lock()
			logger := c.logger
			c.mu.Unlock()
			logger.Warn("unsubscribe failed", "topic", topic, "error", err)
		}
	}
}

func statusText(payload []byte) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(payload))
}
