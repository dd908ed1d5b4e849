package tui

import (
	"sync"

	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
	"github.com/nerrad567/melsec-monitor/internal/rowview"
)

// Bridge hands rows from the engine Loop to the bubbletea program.
//
// Render, Select and Move must run on the Loop. Snapshot and Changed are
// safe from any goroutine.
type Bridge struct {
	reg *rowview.Registry

	mu       sync.Mutex
	rows     []monitor.RowView
	selected register.Ref
	hasSel   bool

	changed chan struct{}
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{
		reg:     rowview.NewRegistry(),
		changed: make(chan struct{}, 1),
	}
}

// Render implements monitor.Renderer.
func (b *Bridge) Render(row monitor.RowView) {
	b.reg.Render(row)
	b.publish()
}

// Select implements monitor.Selector.
func (b *Bridge) Select(ref register.Ref) error {
	if err := b.reg.Select(ref); err != nil {
		return err
	}
	b.publish()
	return nil
}

// Move shifts the selection by delta rows.
func (b *Bridge) Move(delta int) {
	if _, ok := b.reg.Move(delta); ok {
		b.publish()
	}
}

// Changed is signalled after rows or the selection change. Signals
// coalesce; read Snapshot after each one.
func (b *Bridge) Changed() <-chan struct{} {
	return b.changed
}

// Snapshot returns the rows in display order and the selected register.
func (b *Bridge) Snapshot() (rows []monitor.RowView, selected register.Ref, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows = make([]monitor.RowView, len(b.rows))
	copy(rows, b.rows)
	return rows, b.selected, b.hasSel
}

func (b *Bridge) publish() {
	rows := b.reg.Rows()
	sel, ok := b.reg.Selected()

	b.mu.Lock()
	b.rows = rows
	b.selected, b.hasSel = sel, ok
	b.mu.Unlock()

	select {
	case b.changed <- struct{}{}:
	default:
	}
}
