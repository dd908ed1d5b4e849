// Package tui is the terminal front end of melsecmon, built on bubbletea.
//
// The engine owns all register state on its Loop. Rows reach the UI through
// a Bridge, which is registered as the engine's Renderer and Selector and
// keeps a locked copy of the rows for the bubbletea goroutine. Every other
// engine interaction happens in tea.Cmd goroutines, so Update never waits
// on the Loop.
//
// Keys (table focus):
//
//	up/down, k/j   move the selection
//	enter          edit the selected register
//	1-8            display format U16 I16 HEX BIN ASCII U32 I32 F32
//	t              edit the monitor target
//	w              quick write raw words at the selected register
//	s              start/stop the mock server
//	a              toggle auto-start
//	q, ctrl+c      quit
//
// In the edit popup tab cycles the write format, enter writes, esc cancels
// and ctrl+arrows move the popup. The popup position is saved.
package tui
