package influxdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// Measurement names.
const (
	MeasurementWords  = "register_words"
	MeasurementWrites = "register_writes"
)

// RecordWord records one stored word value.
//
// Example:
//
//	client.RecordWord(register.At("D", 100), 0x1234)
//	// register_words,address=100,key=D value=4660i
func (c *Client) RecordWord(ref register.Ref, value uint16) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(wordPoint(ref, value, c.now()))
}

// RecordWrite records a user write: the target, the format it was entered
// in, and the words sent.
func (c *Client) RecordWrite(ref register.Ref, f format.Format, words []uint16) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(writePoint(ref, f, words, c.now()))
}

func refTags(ref register.Ref) map[string]string {
	return map[string]string{
		"key":     string(ref.Key),
		"address": strconv.FormatUint(uint64(ref.Addr), 10),
	}
}

func wordPoint(ref register.Ref, value uint16, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementWords, refTags(ref),
		map[string]any{"value": int64(value)}, ts)
}

func writePoint(ref register.Ref, f format.Format, words []uint16, ts time.Time) *write.Point {
	tags := refTags(ref)
	tags["format"] = f.String()

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strconv.FormatUint(uint64(w), 10)
	}
	return write.NewPoint(MeasurementWrites, tags, map[string]any{
		"words": strings.Join(parts, ","),
		"count": int64(len(words)),
	}, ts)
}
