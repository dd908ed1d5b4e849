package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
	"github.com/nerrad567/melsec-monitor/internal/settings"
)

// syncLoop runs posted closures immediately.
type syncLoop struct{}

func (syncLoop) Post(fn func()) bool { fn(); return true }

func (syncLoop) AfterFunc(d time.Duration, fn func()) *time.Timer { return time.AfterFunc(d, fn) }

type fakeEngine struct {
	mu        sync.Mutex
	state     monitor.State
	diag      *monitor.DiagLog
	formats   []format.Format
	edit      *monitor.EditSession
	editFmts  []format.Format
	submitErr error
	submitted []string
	cancelled int
	retarget  []string
	toggles   int
	autoStart []bool
	quick     map[register.Ref]string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		state: monitor.State{Target: register.At("D", 0), Format: format.U16},
		diag:  monitor.NewDiagLog(10, nil),
		quick: make(map[register.Ref]string),
	}
}

func (f *fakeEngine) State(context.Context) (monitor.State, error) { return f.state, nil }

func (f *fakeEngine) Retarget(_ context.Context, text string) (register.Ref, error) {
	f.retarget = append(f.retarget, text)
	return register.ParseTargetLenient(text), nil
}

func (f *fakeEngine) SetFormat(_ context.Context, fm format.Format) error {
	f.formats = append(f.formats, fm)
	return nil
}

func (f *fakeEngine) ToggleServer(context.Context) error { f.toggles++; return nil }

func (f *fakeEngine) SetAutoStart(_ context.Context, enabled bool) error {
	f.autoStart = append(f.autoStart, enabled)
	return nil
}

func (f *fakeEngine) OpenEdit(_ context.Context, ref register.Ref) (monitor.EditSession, error) {
	f.edit = &monitor.EditSession{Target: ref, Format: f.state.Format}
	return *f.edit, nil
}

func (f *fakeEngine) SetEditFormat(_ context.Context, fm format.Format) error {
	f.editFmts = append(f.editFmts, fm)
	return nil
}

func (f *fakeEngine) SubmitEdit(_ context.Context, text string) (format.Write, error) {
	f.submitted = append(f.submitted, text)
	if f.submitErr != nil {
		return format.Write{}, f.submitErr
	}
	return format.PlanWrite(f.edit.Format, f.edit.Target, text)
}

func (f *fakeEngine) CancelEdit(context.Context) (bool, error) {
	f.cancelled++
	return true, nil
}

func (f *fakeEngine) WriteWords(_ context.Context, ref register.Ref, text string) ([]uint16, error) {
	words, err := format.ParseWords(text)
	if err == nil {
		f.quick[ref] = text
	}
	return words, err
}

func (f *fakeEngine) Diag() *monitor.DiagLog { return f.diag }

type fakePopups struct {
	saved []settings.Position
	load  settings.Position
	ok    bool
}

func (p *fakePopups) PopupPosition(_ context.Context, popup, viewport settings.Size) (settings.Position, bool, error) {
	return p.load.Clamp(popup, viewport), p.ok, nil
}

func (p *fakePopups) SetPopupPosition(_ context.Context, pos settings.Position) error {
	p.saved = append(p.saved, pos)
	return nil
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// step applies msg and then feeds back the message of the returned command.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if out := cmd(); out != nil {
		next, _ = m.Update(out)
		m = next.(Model)
	}
	return m
}

func newTestModel(t *testing.T, eng *fakeEngine, popups PopupStore) (Model, *Bridge) {
	t.Helper()
	bridge := NewBridge()
	for i := 0; i < 4; i++ {
		ref := register.At("D", register.Address(i))
		bridge.Render(monitor.RowView{Ref: ref, Label: ref.String(), Format: format.U16})
	}

	m := New(context.Background(), Options{Engine: eng, Bridge: bridge, Loop: syncLoop{}, Popups: popups, Target: "D0"})
	m = pullRows(m)
	next, _ := m.Update(stateMsg{state: eng.state})
	return next.(Model), bridge
}

// pullRows applies a row change without waiting for the next one.
func pullRows(m Model) Model {
	next, _ := m.Update(rowsChangedMsg{})
	return next.(Model)
}

func TestBridge(t *testing.T) {
	b := NewBridge()
	d0, d1 := register.At("D", 0), register.At("D", 1)

	if err := b.Select(d0); !errors.Is(err, monitor.ErrRenderTargetMissing) {
		t.Fatalf("Select() before render error = %v, want ErrRenderTargetMissing", err)
	}

	b.Render(monitor.RowView{Ref: d0, Label: "D0"})
	b.Render(monitor.RowView{Ref: d1, Label: "D1"})
	b.Render(monitor.RowView{Ref: d0, Label: "D0", Formatted: "5", Known: true})

	select {
	case <-b.Changed():
	default:
		t.Fatal("Changed() not signalled")
	}
	select {
	case <-b.Changed():
		t.Fatal("Changed() signals did not coalesce")
	default:
	}

	rows, _, ok := b.Snapshot()
	if ok {
		t.Error("selection reported before any Select")
	}
	if len(rows) != 2 || rows[0].Formatted != "5" {
		t.Fatalf("rows = %+v", rows)
	}

	if err := b.Select(d1); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	b.Move(5)
	if _, sel, _ := b.Snapshot(); sel != d1 {
		t.Errorf("selected = %s, want D1 (clamped)", sel)
	}
	b.Move(-1)
	if _, sel, _ := b.Snapshot(); sel != d0 {
		t.Errorf("selected = %s, want D0", sel)
	}
}

func TestModel_Navigation(t *testing.T) {
	m, _ := newTestModel(t, newFakeEngine(), nil)
	if len(m.rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(m.rows))
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown}) // nothing selected: first row
	m = pullRows(m)
	m = step(t, m, runes("j"))
	m = pullRows(m)

	if !m.hasSel || m.selected != register.At("D", 1) {
		t.Errorf("selected = %s (%t), want D1", m.selected, m.hasSel)
	}
	if got := m.writeRef(); got != register.At("D", 1) {
		t.Errorf("writeRef() = %s, want D1", got)
	}
}

func TestModel_FormatKeys(t *testing.T) {
	tests := []struct {
		key  string
		want format.Format
	}{
		{key: "1", want: format.U16},
		{key: "3", want: format.HEX},
		{key: "8", want: format.F32},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			eng := newFakeEngine()
			m, _ := newTestModel(t, eng, nil)

			m = step(t, m, runes(tt.key))
			if len(eng.formats) != 1 || eng.formats[0] != tt.want {
				t.Errorf("SetFormat calls = %v, want [%s]", eng.formats, tt.want)
			}
			if m.state.Format != tt.want {
				t.Errorf("state.Format = %s, want %s", m.state.Format, tt.want)
			}
		})
	}
}

func TestModel_ServerAndAutoStart(t *testing.T) {
	eng := newFakeEngine()
	m, _ := newTestModel(t, eng, nil)

	m = step(t, m, runes("s"))
	m = step(t, m, runes("a"))
	m = step(t, m, runes("a"))

	if eng.toggles != 1 {
		t.Errorf("ToggleServer calls = %d, want 1", eng.toggles)
	}
	if len(eng.autoStart) != 2 || !eng.autoStart[0] || eng.autoStart[1] {
		t.Errorf("SetAutoStart calls = %v, want [true false]", eng.autoStart)
	}
	if m.state.AutoStart {
		t.Error("AutoStart still set after toggling twice")
	}
}

func TestModel_EditFlow(t *testing.T) {
	eng := newFakeEngine()
	m, _ := newTestModel(t, eng, nil)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.focus != focusEdit || m.edit == nil {
		t.Fatal("enter did not open the edit popup")
	}
	if m.edit.session.Target != register.At("D", 0) {
		t.Errorf("edit target = %s, want D0 (monitor target)", m.edit.session.Target)
	}

	// Rejected input keeps the popup open with the error shown.
	eng.submitErr = format.ErrInvalidInput
	m.edit.input.SetValue("abc")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.edit == nil || m.edit.err == "" {
		t.Fatal("rejected submit closed the popup or showed no error")
	}

	eng.submitErr = nil
	m.edit.input.SetValue("42")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.edit != nil || m.focus != focusTable {
		t.Fatal("successful submit left the popup open")
	}
	if !strings.Contains(m.status, "D0") {
		t.Errorf("status = %q, want mention of D0", m.status)
	}
	if len(eng.submitted) != 2 || eng.submitted[1] != "42" {
		t.Errorf("submitted = %v", eng.submitted)
	}
}

func TestModel_EditCycleAndCancel(t *testing.T) {
	eng := newFakeEngine()
	m, _ := newTestModel(t, eng, nil)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if len(eng.editFmts) != 1 || eng.editFmts[0] != format.I16 {
		t.Fatalf("SetEditFormat calls = %v, want [I16]", eng.editFmts)
	}
	if m.edit.session.Format != format.I16 || m.state.Format != format.I16 {
		t.Errorf("formats = %s/%s, want I16", m.edit.session.Format, m.state.Format)
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.edit != nil || m.focus != focusTable {
		t.Error("esc did not close the popup")
	}
	if eng.cancelled != 1 {
		t.Errorf("CancelEdit calls = %d, want 1", eng.cancelled)
	}
}

func TestNextFormat(t *testing.T) {
	if got := nextFormat(format.F32); got != format.U16 {
		t.Errorf("nextFormat(F32) = %s, want U16", got)
	}
	if got := nextFormat("bogus"); got != format.U16 {
		t.Errorf("nextFormat(bogus) = %s, want U16", got)
	}
}

func TestModel_PopupPosition(t *testing.T) {
	t.Run("centred when nothing saved", func(t *testing.T) {
		m, _ := newTestModel(t, newFakeEngine(), nil)
		m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

		want := settings.Position{Left: (100 - settings.DefaultPopupSize.Width) / 2, Top: (40 - settings.DefaultPopupSize.Height) / 2}
		if m.popup != want {
			t.Errorf("popup = %+v, want %+v", m.popup, want)
		}
	})

	t.Run("saved position clamped and moves persisted", func(t *testing.T) {
		popups := &fakePopups{load: settings.Position{Left: 500, Top: 3}, ok: true}
		eng := newFakeEngine()
		m, _ := newTestModel(t, eng, popups)
		m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

		if want := (settings.Position{Left: 80 - settings.DefaultPopupSize.Width, Top: 3}); m.popup != want {
			t.Fatalf("popup = %+v, want %+v", m.popup, want)
		}

		m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlRight})
		m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlUp})

		want := settings.Position{Left: 80 - settings.DefaultPopupSize.Width, Top: 2}
		if m.popup != want {
			t.Errorf("popup = %+v, want %+v", m.popup, want)
		}
		if n := len(popups.saved); n != 2 || popups.saved[n-1] != want {
			t.Errorf("saved = %+v", popups.saved)
		}
	})
}

func TestModel_TargetInput(t *testing.T) {
	eng := newFakeEngine()
	m, _ := newTestModel(t, eng, nil)

	m = step(t, m, runes("t"))
	if m.focus != focusTarget {
		t.Fatal("t did not focus the target input")
	}
	m.target.SetValue("m20")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.focus != focusTable {
		t.Error("enter left the target input focused")
	}
	if len(eng.retarget) != 1 || eng.retarget[0] != "m20" {
		t.Errorf("Retarget calls = %v", eng.retarget)
	}
	if m.status != "monitoring M20" {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_QuickWrite(t *testing.T) {
	eng := newFakeEngine()
	m, _ := newTestModel(t, eng, nil)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = pullRows(m)

	m = step(t, m, runes("w"))
	m.quick.SetValue("1,zz")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.focus != focusQuick || m.err == "" {
		t.Fatal("invalid words did not keep the input open with an error")
	}

	m.quick.SetValue("1, 0x10")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.focus != focusTable || m.quick.Value() != "" {
		t.Error("successful write left the input open")
	}
	if got := eng.quick[register.At("D", 0)]; got != "1, 0x10" {
		t.Errorf("WriteWords at D0 = %q", got)
	}
}

func TestModel_View(t *testing.T) {
	eng := newFakeEngine()
	eng.state.Server = monitor.ServerState{Running: true, StatusText: monitor.StatusTextRunning}
	m, _ := newTestModel(t, eng, nil)
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = step(t, m, stateMsg{state: eng.state})

	out := m.View()
	for _, want := range []string{"MELSEC monitor", "D3", monitor.StatusTextRunning, "U16"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if out := m.View(); !strings.Contains(out, "Edit D0") {
		t.Errorf("popup view missing title:\n%s", out)
	}
}

func TestVisibleRows(t *testing.T) {
	m, _ := newTestModel(t, newFakeEngine(), nil)
	for i := 4; i < 40; i++ {
		ref := register.At("D", register.Address(i))
		m.rows = append(m.rows, monitor.RowView{Ref: ref, Label: ref.String()})
	}
	m.height = chromeLines + 10
	m.selected, m.hasSel = register.At("D", 39), true

	start, end := m.visibleRows()
	if end-start != 10 || end != 40 {
		t.Errorf("visibleRows() = [%d,%d), want [30,40)", start, end)
	}
}
