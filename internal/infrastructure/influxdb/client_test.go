package influxdb

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/infrastructure/config"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

type fakeWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (w *fakeWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	w.points = append(w.points, p)
	w.mu.Unlock()
}

func (w *fakeWriter) Flush() {
	w.mu.Lock()
	w.flushes++
	w.mu.Unlock()
}

func (w *fakeWriter) lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.points))
	for i, p := range w.points {
		out[i] = write.PointToLineProtocol(p, time.Second)
	}
	return out
}

var fixedTime = time.Unix(1767225600, 0)

func newTestClient() (*Client, *fakeWriter) {
	w := &fakeWriter{}
	c := newClient(w)
	c.now = func() time.Time { return fixedTime }
	return c, w
}

func TestRecordWord(t *testing.T) {
	c, w := newTestClient()

	c.RecordWord(register.At("D", 100), 0x1234)

	lines := w.lines()
	if len(lines) != 1 {
		t.Fatalf("points = %d, want 1", len(lines))
	}
	line := lines[0]
	for _, want := range []string{"register_words,", "address=100", "key=D", " value=4660i ", "1767225600"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestRecordWrite(t *testing.T) {
	c, w := newTestClient()

	c.RecordWrite(register.At("W", 0x1A), format.F32, []uint16{0, 16256})

	lines := w.lines()
	if len(lines) != 1 {
		t.Fatalf("points = %d, want 1", len(lines))
	}
	line := lines[0]
	for _, want := range []string{"register_writes,", "address=26", "format=F32", "key=W", `words="0,16256"`, "count=2i"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestClose_StopsWrites(t *testing.T) {
	c, w := newTestClient()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if w.flushes != 1 {
		t.Errorf("flushes on close = %d, want 1", w.flushes)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}

	c.RecordWord(register.At("D", 0), 1)
	c.Flush()
	if len(w.lines()) != 0 || w.flushes != 1 {
		t.Error("writes or flushes after Close should be dropped")
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}
}

func TestForwardErrors(t *testing.T) {
	c, _ := newTestClient()

	var got []error
	c.SetOnError(func(err error) { got = append(got, err) })

	errs := make(chan error, 1)
	errs <- errors.New("401 unauthorized")
	close(errs)
	c.forwardErrors(errs)

	if len(got) != 1 || !errors.Is(got[0], ErrWriteFailed) {
		t.Errorf("forwarded = %v, want one ErrWriteFailed", got)
	}
}

func TestConnect_Disabled(t *testing.T) {
	if _, err := Connect(config.InfluxDBConfig{Enabled: false}); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

// TestConnect_Live needs a local InfluxDB; set RUN_INTEGRATION=1 to run it.
func TestConnect_Live(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION") == "" {
		t.Skip("RUN_INTEGRATION not set")
	}

	c, err := Connect(config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         os.Getenv("MELSECMON_INFLUXDB_TOKEN"),
		Org:           "melsecmon",
		Bucket:        "registers",
		FlushInterval: 1,
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close() //nolint:errcheck // test cleanup

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	c.RecordWord(register.At("D", 0), 42)
	c.Flush()
}
