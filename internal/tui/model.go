package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/register"
	"github.com/nerrad567/melsec-monitor/internal/settings"
)

const (
	// refreshInterval is how often engine state and the diag log are re-read.
	refreshInterval = 500 * time.Millisecond

	// diagLines is the number of diagnostic lines shown.
	diagLines = 5

	// chromeLines is the height used by everything except the row table.
	chromeLines = 14
)

// Engine is the part of monitor.Engine the UI drives.
type Engine interface {
	State(ctx context.Context) (monitor.State, error)
	Retarget(ctx context.Context, text string) (register.Ref, error)
	SetFormat(ctx context.Context, f format.Format) error
	ToggleServer(ctx context.Context) error
	SetAutoStart(ctx context.Context, enabled bool) error
	OpenEdit(ctx context.Context, ref register.Ref) (monitor.EditSession, error)
	SetEditFormat(ctx context.Context, f format.Format) error
	SubmitEdit(ctx context.Context, text string) (format.Write, error)
	CancelEdit(ctx context.Context) (bool, error)
	WriteWords(ctx context.Context, ref register.Ref, text string) ([]uint16, error)
	Diag() *monitor.DiagLog
}

// PopupStore persists the edit popup position.
type PopupStore interface {
	PopupPosition(ctx context.Context, popup, viewport settings.Size) (settings.Position, bool, error)
	SetPopupPosition(ctx context.Context, pos settings.Position) error
}

// Options configures the UI.
type Options struct {
	Engine Engine
	Bridge *Bridge
	Loop   monitor.Dispatcher
	Popups PopupStore // nil: position not persisted
	// Target prefills the target input.
	Target string
}

type focus int

const (
	focusTable focus = iota
	focusTarget
	focusQuick
	focusEdit
)

// editState is the open edit popup.
type editState struct {
	session monitor.EditSession
	input   textinput.Model
	err     string
}

// Model is the bubbletea model.
type Model struct {
	ctx    context.Context
	engine Engine
	bridge *Bridge
	loop   monitor.Dispatcher
	popups PopupStore

	width  int
	height int
	focus  focus

	rows     []monitor.RowView
	selected register.Ref
	hasSel   bool
	state    monitor.State
	diag     []string

	target textinput.Model
	quick  textinput.Model
	edit   *editState
	popup  settings.Position
	help   help.Model

	status string
	err    string
}

// New creates the model. ctx bounds every engine call it makes.
func New(ctx context.Context, opts Options) Model {
	target := textinput.New()
	target.Prompt = ""
	target.CharLimit = 16
	target.Width = 10
	target.SetValue(opts.Target)

	quick := textinput.New()
	quick.Prompt = ""
	quick.Placeholder = "1, 0x10, 65535"
	quick.CharLimit = 256
	quick.Width = 40

	return Model{
		ctx:    ctx,
		engine: opts.Engine,
		bridge: opts.Bridge,
		loop:   opts.Loop,
		popups: opts.Popups,
		target: target,
		quick:  quick,
		help:   help.New(),
	}
}

// writeRef is where an edit or quick write lands: the selection, else the target.
func (m Model) writeRef() register.Ref {
	if m.hasSel {
		return m.selected
	}
	return m.state.Target
}

func (m Model) viewport() settings.Size {
	return settings.Size{Width: m.width, Height: m.height}
}
