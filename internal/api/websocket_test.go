package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket_SubscribeAndRender(t *testing.T) {
	srv := testServer(t, newFakeEngine())
	conn := dialWS(t, srv)
	waitForClients(t, srv.Hub(), 1)

	sub := `{"type":"subscribe","id":"1","payload":{"channels":["register.changed"]}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(sub)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeResponse || msg.ID != "1" {
		t.Fatalf("subscribe reply = %+v", msg)
	}

	d0 := register.At("D", 0)
	srv.Hub().Render(monitor.RowView{
		Ref:       d0,
		Label:     "D0",
		Format:    format.HEX,
		Known:     true,
		Bits:      format.Bits(0x00FF),
		Formatted: "0x00FF",
		Raw:       "00FF",
	})

	msg := readWS(t, conn)
	if msg.Type != WSTypeEvent || msg.EventType != ChannelRows {
		t.Fatalf("event = %+v", msg)
	}
	var row RowResponse
	if err := json.Unmarshal(msg.Payload, &row); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if row.Ref != "D0" || row.Formatted != "0x00FF" || row.Bits != "0000000011111111" {
		t.Errorf("row = %+v", row)
	}
}

func TestWebSocket_PingAndErrors(t *testing.T) {
	srv := testServer(t, newFakeEngine())
	conn := dialWS(t, srv)

	tests := []struct {
		name string
		send string
		want string
	}{
		{name: "ping", send: `{"type":"ping","id":"p"}`, want: WSTypePong},
		{name: "unknown type", send: `{"type":"shout","id":"x"}`, want: WSTypeError},
		{name: "subscribe without channels", send: `{"type":"subscribe","id":"s"}`, want: WSTypeError},
		{name: "not json", send: `{`, want: WSTypeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.send)); err != nil {
				t.Fatalf("WriteMessage() error = %v", err)
			}
			if msg := readWS(t, conn); msg.Type != tt.want {
				t.Errorf("reply type = %q, want %q", msg.Type, tt.want)
			}
		})
	}
}

func TestHub_BroadcastSkipsUnsubscribed(t *testing.T) {
	hub := NewHub(testServer(t, newFakeEngine()).logger)
	subscribed := &peer{hub: hub, out: make(chan []byte, 1), topics: map[string]bool{ChannelRows: true}}
	other := &peer{hub: hub, out: make(chan []byte, 1), topics: map[string]bool{}}
	hub.add(subscribed)
	hub.add(other)

	hub.Broadcast(ChannelRows, map[string]string{"ref": "D1"})

	if len(subscribed.out) != 1 {
		t.Errorf("subscribed client queued %d frames, want 1", len(subscribed.out))
	}
	if len(other.out) != 0 {
		t.Errorf("unsubscribed client queued %d frames, want 0", len(other.out))
	}

	// A full buffer drops instead of blocking.
	hub.Broadcast(ChannelRows, map[string]string{"ref": "D2"})
	if len(subscribed.out) != 1 {
		t.Errorf("full client queued %d frames, want 1", len(subscribed.out))
	}
}

func TestHub_RunClosesClients(t *testing.T) {
	hub := NewHub(testServer(t, newFakeEngine()).logger)
	client := &peer{hub: hub, out: make(chan []byte, 1), topics: map[string]bool{}}
	hub.add(client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Run returned", hub.ClientCount())
	}
	if _, ok := <-client.out; ok {
		t.Error("send channel still open")
	}
	// Removing after shutdown must not close the queue twice.
	hub.remove(client)
}
