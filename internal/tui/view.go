package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/grantline/internal/timeline"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var mainContent string
	switch {
	case m.mode == ModeHelp:
		mainContent = m.renderHelp()
	case m.mode == ModeConfirmDelete:
		mainContent = lipgloss.Place(
			m.width, m.height-3,
			lipgloss.Center, lipgloss.Center,
			m.renderConfirmModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	default:
		mainContent = m.renderTimeline()
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar(), m.help.View(keys))
}

func (m Model) renderHeader() string {
	title := fmt.Sprintf("%s  ·  %s", m.board.Name, m.session.Zoom())
	if m.viewerID != "" {
		title += "  ·  " + m.viewerID
	}
	return HeaderStyle.Render(truncate(title, m.width-2))
}

func (m Model) renderTimeline() string {
	f := m.currentFrame()
	lines := []string{m.renderHeader()}

	r := newRaster(f)
	width := m.chartWidth()
	lines = append(lines, strings.Repeat(" ", nameWidth+1)+paint(window(r.axis(f), m.scroll, width), ""))

	switch {
	case m.session.Loading():
		lines = append(lines, HelpStyle.Render("  Loading timeline..."))
	case f.Empty:
		lines = append(lines, HelpStyle.Render("  No grants yet. Add one with: grantline grant add"))
	default:
		end := m.rowOffset + m.visibleRows()
		if end > len(f.Rows) {
			end = len(f.Rows)
		}
		for i := m.rowOffset; i < end; i++ {
			lines = append(lines, m.renderRow(f, r, f.Rows[i]))
		}
	}

	for len(lines) < m.height-3 {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(f *timeline.Frame, r raster, row timeline.Row) string {
	cursor := "  "
	style := NameStyle
	if !row.Editable {
		style = NameReadOnlyStyle
	}
	if row.Index == m.cursor {
		cursor = "❯ "
		style = NameSelectedStyle
	}
	name := style.Render(cursor + pad(row.Name, nameWidth-2))
	return name + " " + paint(window(r.row(f, row), m.scroll, m.chartWidth()), row.Color)
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.errMsg != "":
		left = ErrorStyle.Render(m.errMsg)
	case m.message != "":
		left = MessageStyle.Render(m.message)
	}

	var right string
	if d := m.session.Drag(); d.Dragging {
		if g, ok := m.session.Item(d.ItemID); ok {
			right = fmt.Sprintf("progress %s", timeline.FormatDate(g.ProgressDate))
		}
	} else if row, ok := m.currentRow(); ok {
		if g, ok := m.session.Item(row.ItemID); ok {
			right = fmt.Sprintf("%s → %s  progress %s",
				timeline.FormatDate(g.StartDate), timeline.FormatDate(g.EndDate), timeline.FormatDate(g.ProgressDate))
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return StatusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + HelpStyle.Render(right))
}

func (m Model) renderConfirmModal() string {
	name := ""
	if m.pending != nil {
		name = m.pending.Name
	}
	content := ErrorStyle.Render("Delete grant?") + "\n\n"
	content += fmt.Sprintf("%s and its milestones will be removed.\n\n", truncate(name, 40))
	content += HelpStyle.Render("[y] Delete   [n] Cancel")
	return ModalStyle.Width(50).Render(content)
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	content := HeaderStyle.Render("Keyboard shortcuts") + "\n\n" + h.View(keys) + "\n\n" +
		HelpStyle.Render("Mouse: drag a ◆ marker to move progress, hover for dates") + "\n\n" +
		HelpStyle.Render("Press any key to close")
	return lipgloss.Place(m.width, m.height-3, lipgloss.Center, lipgloss.Center, content)
}
