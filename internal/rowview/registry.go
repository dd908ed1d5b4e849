package rowview

import (
	"fmt"

	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// Registry holds the materialised rows.
type Registry struct {
	index     map[register.Ref]int
	rows      []monitor.RowView
	selected  int // -1 when nothing is selected
	listeners []func(monitor.RowView)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index:    make(map[register.Ref]int),
		selected: -1,
	}
}

// OnChange registers fn to run after every render, on the Loop.
func (r *Registry) OnChange(fn func(monitor.RowView)) {
	r.listeners = append(r.listeners, fn)
}

// Render creates or updates the row for row.Ref.
func (r *Registry) Render(row monitor.RowView) {
	if i, ok := r.index[row.Ref]; ok {
		r.rows[i] = row
	} else {
		r.index[row.Ref] = len(r.rows)
		r.rows = append(r.rows, row)
	}

	for _, fn := range r.listeners {
		fn(row)
	}
}

// Select marks ref as the selected row.
//
// Returns:
//   - error: monitor.ErrRenderTargetMissing when ref has no row yet
func (r *Registry) Select(ref register.Ref) error {
	i, ok := r.index[ref]
	if !ok {
		return fmt.Errorf("%w: %s", monitor.ErrRenderTargetMissing, ref)
	}
	r.selected = i
	return nil
}

// Selected returns the selected register; ok is false when none is.
func (r *Registry) Selected() (register.Ref, bool) {
	if r.selected < 0 {
		return register.Ref{}, false
	}
	return r.rows[r.selected].Ref, true
}

// Move shifts the selection by delta rows, clamped to the first and last row.
// With nothing selected the first row is selected.
func (r *Registry) Move(delta int) (register.Ref, bool) {
	if len(r.rows) == 0 {
		return register.Ref{}, false
	}
	if r.selected < 0 {
		r.selected = 0
		return r.rows[0].Ref, true
	}

	next := r.selected + delta
	if next < 0 {
		next = 0
	}
	if next >= len(r.rows) {
		next = len(r.rows) - 1
	}
	r.selected = next
	return r.rows[next].Ref, true
}

// Row returns the row for ref.
func (r *Registry) Row(ref register.Ref) (monitor.RowView, bool) {
	i, ok := r.index[ref]
	if !ok {
		return monitor.RowView{}, false
	}
	return r.rows[i], true
}

// Rows returns a copy of every row in display order.
func (r *Registry) Rows() []monitor.RowView {
	out := make([]monitor.RowView, len(r.rows))
	copy(out, r.rows)
	return out
}

// Len returns the number of rows.
func (r *Registry) Len() int {
	return len(r.rows)
}
