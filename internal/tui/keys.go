package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Edit       key.Binding
	Target     key.Binding
	QuickWrite key.Binding
	Server     key.Binding
	AutoStart  key.Binding
	Formats    key.Binding
	Quit       key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.Formats, k.Target, k.QuickWrite, k.Server, k.AutoStart, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Edit:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
	Target:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "target")),
	QuickWrite: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write words")),
	Server:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "server")),
	AutoStart:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-start")),
	Formats:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8"), key.WithHelp("1-8", "format")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type popupKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
	Cycle  key.Binding
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
}

var popupKeys = popupKeyMap{
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "write")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Cycle:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "write type")),
	Left:   key.NewBinding(key.WithKeys("ctrl+left")),
	Right:  key.NewBinding(key.WithKeys("ctrl+right")),
	Up:     key.NewBinding(key.WithKeys("ctrl+up")),
	Down:   key.NewBinding(key.WithKeys("ctrl+down")),
}
