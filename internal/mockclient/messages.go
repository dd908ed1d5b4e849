package mockclient

import (
	"encoding/json"
	"time"
)

// Actions understood by the mock.
const (
	ActionStartMock    = "start_mock"
	ActionStopMock     = "stop_mock"
	ActionStartMonitor = "start_monitor"
	ActionStopMonitor  = "stop_monitor"
	ActionGetWords     = "get_words"
	ActionSetWords     = "set_words"
)

// RequestMessage is published to melsecmock/request/{request_id}.
type RequestMessage struct {
	RequestID  string    `json:"request_id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Parameters any       `json:"parameters,omitempty"`
}

// ResponseMessage is received on melsecmock/response/{request_id}.
type ResponseMessage struct {
	RequestID string          `json:"request_id"`
	Timestamp time.Time       `json:"timestamp"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *ResponseError  `json:"error,omitempty"`
}

// ResponseError describes why the mock refused a request.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MonitorEvent is one pushed update: Vals[i] belongs at Addr+i.
type MonitorEvent struct {
	Key  string `json:"key"`
	Addr uint32 `json:"addr"`
	Vals []int  `json:"vals"`
}

type startMockParams struct {
	IP         string `json:"ip"`
	TCPPort    int    `json:"tcpPort"`
	UDPPort    int    `json:"udpPort"`
	TimAwaitMs int    `json:"timAwaitMs"`
}

type startMonitorParams struct {
	Target     string `json:"target"`
	IntervalMs int    `json:"intervalMs"`
}

type getWordsParams struct {
	Key   string `json:"key"`
	Addr  uint32 `json:"addr"`
	Count int    `json:"count"`
}

type setWordsParams struct {
	Key   string `json:"key"`
	Addr  uint32 `json:"addr"`
	Words []int  `json:"words"`
}
