package mockclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/melsec-monitor/internal/infrastructure/mqtt"
)

// DefaultTimeout bounds a call when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Transport is the part of mqtt.Client the mock client uses.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging surface used by Client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options tunes a Client.
type Options struct {
	QoS     byte
	Timeout time.Duration
}

// Client issues requests to the mock and correlates the responses.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	transport Transport
	qos       byte
	timeout   time.Duration
	logger    Logger
	newID     func() string

	mu      sync.Mutex
	pending map[string]chan ResponseMessage
	started bool
	closed  bool
}

// New creates a client over transport. Call Start before issuing requests.
func New(transport Transport, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		transport: transport,
		qos:       opts.QoS,
		timeout:   opts.Timeout,
		logger:    noopLogger{},
		newID:     func() string { return "req-" + uuid.NewString() },
		pending:   make(map[string]chan ResponseMessage),
	}
}

// SetLogger sets the logger for dropped or malformed responses.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

// Start subscribes to the response topics.
func (c *Client) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if err := c.transport.Subscribe(mqtt.Topics{}.AllResponses(), c.qos, c.handleResponse); err != nil {
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		return fmt.Errorf("subscribing to responses: %w", err)
	}
	return nil
}

// Close fails every pending call with ErrClosed and drops the response
// subscription. Later calls fail immediately.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	started := c.started
	c.mu.Unlock()

	if !started {
		return nil
	}
	return c.transport.Unsubscribe(mqtt.Topics{}.AllResponses())
}

// call sends one request and waits for its response. The returned data is
// the raw "data" field of a successful response.
func (c *Client) call(ctx context.Context, action string, params any) (json.RawMessage, error) {
	id := c.newID()
	ch := make(chan ResponseMessage, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	payload, err := json.Marshal(RequestMessage{
		RequestID:  id,
		Timestamp:  time.Now().UTC(),
		Action:     action,
		Parameters: params,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", action, err)
	}
	if err := c.transport.Publish(mqtt.Topics{}.Request(id), payload, c.qos, false); err != nil {
		return nil, fmt.Errorf("publishing %s request: %w", action, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if !resp.Success {
			if resp.Error != nil {
				return nil, fmt.Errorf("%w: %s: %s", ErrRejected, resp.Error.Code, resp.Error.Message)
			}
			return nil, ErrRejected
		}
		return resp.Data, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s after %v", ErrTimeout, action, c.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) handleResponse(topic string, payload []byte) error {
	var resp ResponseMessage
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if resp.RequestID == "" {
		resp.RequestID = mqtt.LastSegment(topic)
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	if ok {
		delete(c.pending, resp.RequestID)
	}
	logger := c.logger
	c.mu.Unlock()

	if !ok {
		logger.Debug("response for unknown request", "request_id", resp.RequestID)
		return nil
	}
	ch <- resp
	return nil
}
