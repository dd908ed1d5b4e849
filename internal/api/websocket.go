package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/melsec-monitor/internal/infrastructure/config"
	"github.com/nerrad567/melsec-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
)

// Frame types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// ChannelRows carries a RowResponse each time a row is re-rendered.
const ChannelRows = "register.changed"

// peerQueueSize is the number of frames buffered per client.
const peerQueueSize = 256

// WSMessage is a frame in either direction.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe frames.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// Hub fans row renders out to WebSocket clients.
//
// Hub implements monitor.Renderer. Render never blocks the Loop: a client
// whose queue is full misses the frame.
type Hub struct {
	logger *logging.Logger
	now    func() time.Time

	mu    sync.RWMutex
	peers map[*peer]struct{}
}

// peer is one connected client. out is closed exactly once, by whoever
// removes the peer from the hub.
type peer struct {
	hub  *Hub
	conn *websocket.Conn
	out  chan []byte

	mu     sync.RWMutex
	topics map[string]bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS middleware decides which origins get this far.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHub creates a hub with no clients.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger: logger,
		now:    time.Now,
		peers:  make(map[*peer]struct{}),
	}
}

// Run waits for ctx to end and then drops every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		delete(h.peers, p)
		close(p.out)
		if p.conn != nil {
			p.conn.Close()
		}
	}
}

// Render publishes row on ChannelRows.
func (h *Hub) Render(row monitor.RowView) {
	h.Broadcast(ChannelRows, toRowResponse(row))
}

// Broadcast sends payload as an event to clients subscribed to channel.
func (h *Hub) Broadcast(channel string, payload any) {
	frame, err := h.frame(WSMessage{Type: WSTypeEvent, EventType: channel}, payload)
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		targets = append(targets, p)
	}
	h.mu.RUnlock()

	for _, p := range targets {
		if p.subscribed(channel) {
			p.enqueue(frame)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	n := len(h.peers)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	_, ok := h.peers[p]
	delete(h.peers, p)
	n := len(h.peers)
	h.mu.Unlock()

	if ok {
		close(p.out)
		h.logger.Debug("websocket client disconnected", "clients", n)
	}
}

// frame stamps msg, attaches payload and encodes it.
func (h *Hub) frame(msg WSMessage, payload any) ([]byte, error) {
	msg.Timestamp = h.now().UTC().Format(time.RFC3339Nano)
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = body
	}
	return json.Marshal(msg)
}

// handleWebSocket upgrades the request and starts the client's pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	p := &peer{
		hub:    s.hub,
		conn:   conn,
		out:    make(chan []byte, peerQueueSize),
		topics: make(map[string]bool),
	}
	s.hub.add(p)

	go p.writeLoop(s.wsCfg)
	go p.readLoop(s.wsCfg)
}

func (p *peer) readLoop(cfg config.WebSocketConfig) {
	defer func() {
		p.hub.remove(p)
		p.conn.Close()
	}()

	idle := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	extend := func(string) error { return p.conn.SetReadDeadline(time.Now().Add(idle)) }

	p.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	extend("") //nolint:errcheck // a failed deadline surfaces on the next read
	p.conn.SetPongHandler(extend)

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		extend("") //nolint:errcheck // as above
		p.handle(data)
	}
}

func (p *peer) writeLoop(cfg config.WebSocketConfig) {
	ping := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ping.Stop()
		p.conn.Close()
	}()

	wait := time.Duration(cfg.PongTimeout) * time.Second
	send := func(kind int, data []byte) error {
		if err := p.conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
			return err
		}
		return p.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-p.out:
			if !ok {
				send(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if send(websocket.TextMessage, data) != nil {
				return
			}
		case <-ping.C:
			if send(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (p *peer) handle(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		p.reply("", WSTypeError, errorBody("invalid JSON message"))
		return
	}

	switch msg.Type {
	case WSTypePing:
		p.reply(msg.ID, WSTypePong, nil)
	case WSTypeSubscribe, WSTypeUnsubscribe:
		var sub WSSubscribePayload
		if err := json.Unmarshal(msg.Payload, &sub); err != nil || len(sub.Channels) == 0 {
			p.reply(msg.ID, WSTypeError, errorBody("payload must list channels"))
			return
		}
		on := msg.Type == WSTypeSubscribe
		p.mu.Lock()
		for _, ch := range sub.Channels {
			if on {
				p.topics[ch] = true
			} else {
				delete(p.topics, ch)
			}
		}
		p.mu.Unlock()
		p.reply(msg.ID, WSTypeResponse, map[string]any{msg.Type + "d": sub.Channels})
	default:
		p.reply(msg.ID, WSTypeError, errorBody("unknown message type: "+msg.Type))
	}
}

func (p *peer) reply(id, kind string, payload any) {
	frame, err := p.hub.frame(WSMessage{Type: kind, ID: id}, payload)
	if err != nil {
		return
	}
	p.enqueue(frame)
}

func (p *peer) subscribed(channel string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.topics[channel]
}

// enqueue queues frame without blocking. The hub may close out during
// shutdown; the resulting send panic is swallowed.
func (p *peer) enqueue(frame []byte) {
	defer func() { _ = recover() }()
	select {
	case p.out <- frame:
	default:
		p.hub.logger.Warn("websocket client queue full, frame dropped")
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"message": message}
}
