package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the UI until the user quits or ctx is cancelled.
//
// Opts.Bridge must already be registered with the engine as Renderer and
// Selector, and the engine Loop must be running.
func Run(ctx context.Context, opts Options) error {
	if opts.Engine == nil || opts.Bridge == nil || opts.Loop == nil {
		return fmt.Errorf("tui: engine, bridge and loop are required")
	}

	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
