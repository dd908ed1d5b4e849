package monitor

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestDiagLog_NewestFirstAndBounded(t *testing.T) {
	d := NewDiagLog(3, nil)
	tick := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d.now = func() time.Time { return tick }

	for i := 0; i < 5; i++ {
		d.Add(fmt.Sprintf("line %d", i))
	}

	lines := d.Lines()
	if len(lines) != 3 {
		t.Fatalf("len = %d, want 3", len(lines))
	}
	if !strings.HasSuffix(lines[0], "line 4") || !strings.HasSuffix(lines[2], "line 2") {
		t.Errorf("lines = %v, want newest first", lines)
	}
	if !strings.HasPrefix(lines[0], "2026-01-02T03:04:05Z ") {
		t.Errorf("line = %q, want timestamp prefix", lines[0])
	}
}

func TestDiagLog_Attributes(t *testing.T) {
	d := NewDiagLog(0, nil)
	d.AddError("set_words failed", errors.New("timeout"), "start", "D0")

	line := d.Lines()[0]
	if !strings.Contains(line, "set_words failed start=D0 error=timeout") {
		t.Errorf("line = %q", line)
	}
}
