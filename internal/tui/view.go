package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/settings"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.edit != nil {
		return m.viewPopup()
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewFormats())
	b.WriteString("\n\n")
	b.WriteString(m.viewTable())
	b.WriteString("\n")
	b.WriteString(m.viewQuick())
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	for _, line := range trimmedDiag(m.diag, diagLines) {
		b.WriteString(dimStyle.Render(truncate(line, m.width)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) viewHeader() string {
	target := m.target.View()
	if m.focus != focusTarget {
		target = m.state.Target.String()
	}

	autoStart := "[ ]"
	if m.state.AutoStart {
		autoStart = "[x]"
	}

	return strings.Join([]string{
		titleStyle.Render("MELSEC monitor"),
		labelStyle.Render("target ") + target,
		labelStyle.Render("server ") + serverStyle(m.state.Server).Render(m.state.Server.StatusText),
		labelStyle.Render("auto-start ") + autoStart,
		labelStyle.Render("mode ") + m.state.Mode.String(),
	}, "  ")
}

func serverStyle(s monitor.ServerState) lipgloss.Style {
	switch s.StatusText {
	case monitor.StatusTextRunning:
		return runningStyle
	case monitor.StatusTextFailed:
		return failedStyle
	default:
		return stoppedStyle
	}
}

func (m Model) viewFormats() string {
	parts := make([]string, 0, len(format.All()))
	for i, f := range format.All() {
		label := fmt.Sprintf("%d %s", i+1, f)
		if f == m.state.Format {
			label = activeStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func (m Model) viewTable() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-8s %s  %-22s %s", "REG", "F E D C B A 9 8 7 6 5 4 3 2 1 0", "VALUE", "RAW")))
	b.WriteString("\n")

	start, end := m.visibleRows()
	for _, row := range m.rows[start:end] {
		line := renderRow(row)
		if m.hasSel && row.Ref == m.selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// visibleRows returns the window of rows that fits the terminal, keeping
// the selection in view.
func (m Model) visibleRows() (start, end int) {
	n := len(m.rows)
	height := m.height - chromeLines
	if height <= 0 || n <= height {
		return 0, n
	}

	sel := 0
	if m.hasSel {
		for i, row := range m.rows {
			if row.Ref == m.selected {
				sel = i
				break
			}
		}
	}
	start = sel - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

func renderRow(row monitor.RowView) string {
	bits := make([]string, len(row.Bits))
	for i, on := range row.Bits {
		switch {
		case !row.Known:
			bits[i] = dimStyle.Render("·")
		case on:
			bits[i] = bitOnStyle.Render("1")
		default:
			bits[i] = bitOffStyle.Render("0")
		}
	}

	value := row.Formatted
	if row.PairedEmpty {
		value = dimStyle.Render("↑")
	}
	return fmt.Sprintf("%-8s %s  %-22s %s", row.Label, strings.Join(bits, " "), value, row.Raw)
}

func (m Model) viewQuick() string {
	label := labelStyle.Render("write at " + m.writeRef().String() + " ")
	if m.focus == focusQuick {
		return label + m.quick.View()
	}
	return label + dimStyle.Render("(w)")
}

func (m Model) viewStatus() string {
	if m.err != "" {
		return errorStyle.Render(truncate(m.err, m.width))
	}
	return truncate(m.status, m.width)
}

func (m Model) viewPopup() string {
	e := m.edit
	var body strings.Builder
	body.WriteString(titleStyle.Render("Edit " + e.session.Target.String()))
	body.WriteString("\n")
	body.WriteString(labelStyle.Render("write type ") + activeStyle.Render(e.session.Format.String()))
	if e.session.Format.Wide() {
		body.WriteString(labelStyle.Render(fmt.Sprintf(" (%s,%s)", e.session.Target.Anchor(), e.session.Target.Anchor().Partner())))
	}
	body.WriteString("\n")
	body.WriteString(e.input.View())
	body.WriteString("\n")
	if e.err != "" {
		body.WriteString(errorStyle.Render(truncate(e.err, settings.DefaultPopupSize.Width-4)))
	}
	body.WriteString("\n")
	body.WriteString(dimStyle.Render("enter write · esc cancel · tab type"))

	box := popupStyle.Width(settings.DefaultPopupSize.Width - 2).Render(body.String())
	return lipgloss.NewStyle().MarginLeft(m.popup.Left).MarginTop(m.popup.Top).Render(box)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
