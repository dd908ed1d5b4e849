package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes.
const (
	// TopicPrefixMock is the root of everything the protocol mock bridge
	// publishes or listens to.
	TopicPrefixMock = "melsecmock"

	// TopicPrefixSystem carries melsecmon's own presence.
	TopicPrefixSystem = "melsecmon/system"
)

// Topics builds topic names so publishers and subscribers agree.
//
//	topics := mqtt.Topics{}
//	topics.Request("req-3f2a")  // melsecmock/request/req-3f2a
//	topics.MonitorEvents()      // melsecmock/event/monitor
type Topics struct{}

// Request is where a single request to the mock is published.
func (Topics) Request(requestID string) string {
	return fmt.Sprintf("%s/request/%s", TopicPrefixMock, requestID)
}

// Response is where the mock answers the request with the same ID.
func (Topics) Response(requestID string) string {
	return fmt.Sprintf("%s/response/%s", TopicPrefixMock, requestID)
}

// AllResponses matches every response topic.
func (Topics) AllResponses() string {
	return TopicPrefixMock + "/response/+"
}

// MonitorEvents carries pushed word updates for the monitored block.
func (Topics) MonitorEvents() string {
	return TopicPrefixMock + "/event/monitor"
}

// ServerStatusEvents carries the mock's human-readable status text.
func (Topics) ServerStatusEvents() string {
	return TopicPrefixMock + "/event/server-status"
}

// SystemStatus is melsecmon's retained online/offline topic (also the LWT).
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// LastSegment returns the final path element of topic, e.g. the request ID
// of a response topic.
func LastSegment(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
