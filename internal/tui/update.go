package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
	"github.com/nerrad567/melsec-monitor/internal/settings"
)

type (
	rowsChangedMsg struct{}
	refreshTickMsg time.Time

	stateMsg struct {
		state monitor.State
		diag  []string
	}

	editOpenedMsg struct{ session monitor.EditSession }
	editFormatMsg struct{ format format.Format }

	editSubmittedMsg struct {
		write format.Write
		err   error
	}

	quickWrittenMsg struct {
		ref   register.Ref
		words []uint16
		err   error
	}

	popupLoadedMsg struct {
		pos settings.Position
		ok  bool
	}

	statusMsg string

	errMsg struct {
		op  string
		err error
	}
)

// Init starts listening for rows and the periodic state refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForRows(), m.fetchState(), refreshTick())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, m.loadPopup()

	case tea.KeyMsg:
		switch m.focus {
		case focusTarget:
			return m.updateTarget(msg)
		case focusQuick:
			return m.updateQuick(msg)
		case focusEdit:
			return m.updateEdit(msg)
		default:
			return m.updateTable(msg)
		}

	case rowsChangedMsg:
		m.rows, m.selected, m.hasSel = m.bridge.Snapshot()
		return m, m.waitForRows()

	case refreshTickMsg:
		return m, tea.Batch(m.fetchState(), refreshTick())

	case stateMsg:
		m.state = msg.state
		m.diag = msg.diag
		if m.focus != focusTarget {
			m.target.SetValue(msg.state.Target.String())
		}
		return m, nil

	case editOpenedMsg:
		m.edit = &editState{session: msg.session, input: newEditInput()}
		m.focus = focusEdit
		return m, nil

	case editFormatMsg:
		if m.edit != nil {
			m.edit.session.Format = msg.format
			m.state.Format = msg.format
		}
		return m, nil

	case editSubmittedMsg:
		if m.edit == nil {
			return m, nil
		}
		if msg.err != nil {
			m.edit.err = msg.err.Error()
			return m, nil
		}
		m.edit = nil
		m.focus = focusTable
		m.status = fmt.Sprintf("wrote %v at %s", msg.write.Words, msg.write.Start)
		return m, nil

	case quickWrittenMsg:
		if msg.err != nil {
			m.err = "write words: " + msg.err.Error()
			return m, nil
		}
		m.quick.SetValue("")
		m.quick.Blur()
		m.focus = focusTable
		m.err = ""
		m.status = fmt.Sprintf("wrote %v at %s", msg.words, msg.ref)
		return m, nil

	case popupLoadedMsg:
		if msg.ok {
			m.popup = msg.pos
		} else {
			m.popup = settings.Position{
				Left: (m.width - settings.DefaultPopupSize.Width) / 2,
				Top:  (m.height - settings.DefaultPopupSize.Height) / 2,
			}.Clamp(settings.DefaultPopupSize, m.viewport())
		}
		return m, nil

	case statusMsg:
		m.status = string(msg)
		m.err = ""
		return m, nil

	case errMsg:
		m.err = fmt.Sprintf("%s: %v", msg.op, msg.err)
		return m, nil
	}

	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.move(-1)
	case key.Matches(msg, keys.Down):
		m.move(1)
	case key.Matches(msg, keys.Edit):
		return m, m.openEdit(m.writeRef())
	case key.Matches(msg, keys.Formats):
		f := format.All()[msg.String()[0]-'1']
		m.state.Format = f
		return m, m.call("set format", "format "+f.String(), func() error {
			return m.engine.SetFormat(m.ctx, f)
		})
	case key.Matches(msg, keys.Target):
		m.focus = focusTarget
		m.target.CursorEnd()
		cmd := m.target.Focus()
		return m, cmd
	case key.Matches(msg, keys.QuickWrite):
		m.focus = focusQuick
		cmd := m.quick.Focus()
		return m, cmd
	case key.Matches(msg, keys.Server):
		return m, m.call("toggle server", "", func() error {
			return m.engine.ToggleServer(m.ctx)
		})
	case key.Matches(msg, keys.AutoStart):
		enabled := !m.state.AutoStart
		m.state.AutoStart = enabled
		return m, m.call("auto-start", fmt.Sprintf("auto-start %t", enabled), func() error {
			return m.engine.SetAutoStart(m.ctx, enabled)
		})
	}
	return m, nil
}

func (m Model) updateTarget(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := m.target.Value()
		m.target.Blur()
		m.focus = focusTable
		return m, func() tea.Msg {
			ref, err := m.engine.Retarget(m.ctx, text)
			if err != nil {
				return errMsg{op: "retarget", err: err}
			}
			return statusMsg("monitoring " + ref.String())
		}
	case tea.KeyEsc:
		m.target.Blur()
		m.target.SetValue(m.state.Target.String())
		m.focus = focusTable
		return m, nil
	}

	var cmd tea.Cmd
	m.target, cmd = m.target.Update(msg)
	return m, cmd
}

func (m Model) updateQuick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		ref, text := m.writeRef(), m.quick.Value()
		return m, func() tea.Msg {
			words, err := m.engine.WriteWords(m.ctx, ref, text)
			return quickWrittenMsg{ref: ref, words: words, err: err}
		}
	case tea.KeyEsc:
		m.quick.Blur()
		m.focus = focusTable
		return m, nil
	}

	var cmd tea.Cmd
	m.quick, cmd = m.quick.Update(msg)
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, popupKeys.Submit):
		text := m.edit.input.Value()
		return m, func() tea.Msg {
			w, err := m.engine.SubmitEdit(m.ctx, text)
			return editSubmittedMsg{write: w, err: err}
		}
	case key.Matches(msg, popupKeys.Cancel):
		m.edit = nil
		m.focus = focusTable
		return m, func() tea.Msg {
			if _, err := m.engine.CancelEdit(m.ctx); err != nil {
				return errMsg{op: "cancel edit", err: err}
			}
			return nil
		}
	case key.Matches(msg, popupKeys.Cycle):
		next := nextFormat(m.edit.session.Format)
		return m, func() tea.Msg {
			if err := m.engine.SetEditFormat(m.ctx, next); err != nil {
				return errMsg{op: "write type", err: err}
			}
			return editFormatMsg{format: next}
		}
	case key.Matches(msg, popupKeys.Left):
		cmd := m.movePopup(-2, 0)
		return m, cmd
	case key.Matches(msg, popupKeys.Right):
		cmd := m.movePopup(2, 0)
		return m, cmd
	case key.Matches(msg, popupKeys.Up):
		cmd := m.movePopup(0, -1)
		return m, cmd
	case key.Matches(msg, popupKeys.Down):
		cmd := m.movePopup(0, 1)
		return m, cmd
	}

	var cmd tea.Cmd
	m.edit.input, cmd = m.edit.input.Update(msg)
	m.edit.err = ""
	return m, cmd
}

// move shifts the selection on the Loop; the new rows arrive via the Bridge.
func (m Model) move(delta int) {
	bridge := m.bridge
	m.loop.Post(func() { bridge.Move(delta) })
}

// movePopup shifts the popup inside the viewport and saves the new position.
func (m *Model) movePopup(dx, dy int) tea.Cmd {
	m.popup = settings.Position{Left: m.popup.Left + dx, Top: m.popup.Top + dy}.Clamp(settings.DefaultPopupSize, m.viewport())
	if m.popups == nil {
		return nil
	}
	pos := m.popup
	return func() tea.Msg {
		if err := m.popups.SetPopupPosition(m.ctx, pos); err != nil {
			return errMsg{op: "save popup position", err: err}
		}
		return nil
	}
}

func (m Model) openEdit(ref register.Ref) tea.Cmd {
	if ref.Key == "" {
		return nil
	}
	return func() tea.Msg {
		sess, err := m.engine.OpenEdit(m.ctx, ref)
		if err != nil {
			return errMsg{op: "open edit", err: err}
		}
		return editOpenedMsg{session: sess}
	}
}

func (m Model) loadPopup() tea.Cmd {
	if m.popups == nil {
		return func() tea.Msg { return popupLoadedMsg{} }
	}
	viewport := m.viewport()
	return func() tea.Msg {
		pos, ok, err := m.popups.PopupPosition(m.ctx, settings.DefaultPopupSize, viewport)
		if err != nil {
			return errMsg{op: "load popup position", err: err}
		}
		return popupLoadedMsg{pos: pos, ok: ok}
	}
}

// call runs fn off the UI goroutine, reporting done on success.
func (m Model) call(op, done string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{op: op, err: err}
		}
		if done == "" {
			return nil
		}
		return statusMsg(done)
	}
}

func (m Model) waitForRows() tea.Cmd {
	changed := m.bridge.Changed()
	return func() tea.Msg {
		select {
		case <-changed:
			return rowsChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) fetchState() tea.Cmd {
	return func() tea.Msg {
		st, err := m.engine.State(m.ctx)
		if err != nil {
			return errMsg{op: "read state", err: err}
		}
		return stateMsg{state: st, diag: m.engine.Diag().Lines()}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func nextFormat(f format.Format) format.Format {
	all := format.All()
	for i, candidate := range all {
		if candidate == f {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

func newEditInput() textinput.Model {
	in := textinput.New()
	in.Placeholder = "value"
	in.CharLimit = 64
	in.Width = settings.DefaultPopupSize.Width - 6
	in.Focus()
	return in
}

// trimmedDiag returns at most n diagnostic lines.
func trimmedDiag(lines []string, n int) []string {
	if len(lines) > n {
		lines = lines[:n]
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
