package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/timeline"
)

// todayRefresh is how often the frame is redrawn so the today line moves
const todayRefresh = time.Minute

// changeMsg is sent when the session state changed
type changeMsg struct{}

// tickMsg redraws the frame on a timer
type tickMsg time.Time

// deleteResultMsg reports the outcome of a confirmed delete
type deleteResultMsg struct {
	name string
	err  error
}

// Init starts listening for session signals
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), m.waitForWriteError(), m.waitForRequest(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(todayRefresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange listens for session change signals
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.bridge.changed
		return changeMsg{}
	}
}

// waitForWriteError listens for failed progress writes
func (m Model) waitForWriteError() tea.Cmd {
	return func() tea.Msg {
		return <-m.bridge.errs
	}
}

// waitForRequest listens for edit and delete requests
func (m Model) waitForRequest() tea.Cmd {
	return func() tea.Msg {
		return <-m.bridge.requests
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changeMsg:
		m.refresh()
		return m, m.waitForChange()

	case tickMsg:
		m.refresh()
		return m, tick()

	case writeErrorMsg:
		name := msg.grantID
		if row, ok := m.currentFrame().Row(msg.grantID); ok {
			name = row.Name
		}
		m.errMsg = fmt.Sprintf("Progress for %s was not saved: %v", name, msg.err)
		return m, m.waitForWriteError()

	case requestMsg:
		m = m.handleRequest(msg)
		if msg.kind == requestDelete && !m.confirmDelete {
			return m, tea.Batch(m.deleteCmd(msg.grant.ID, msg.grant.Name), m.waitForRequest())
		}
		return m, m.waitForRequest()

	case deleteResultMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Could not delete %s: %v", msg.name, msg.err)
		} else {
			m.message = fmt.Sprintf("Deleted %s", msg.name)
			m.errMsg = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.keepCursorVisible()
		m.clampScroll()
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		switch m.mode {
		case ModeConfirmDelete:
			return m.handleConfirmKeys(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m Model) handleRequest(msg requestMsg) Model {
	switch msg.kind {
	case requestEdit:
		m.message = fmt.Sprintf("Edit %s with: grantline grant update %s", msg.grant.Name, msg.grant.ID)
	case requestDelete:
		if m.confirmDelete {
			g := msg.grant
			m.pending = &g
			m.mode = ModeConfirmDelete
		}
	}
	return m
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.session.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		m.cursor--
		m.keepCursorVisible()

	case key.Matches(msg, keys.Down):
		m.cursor++
		m.keepCursorVisible()

	case key.Matches(msg, keys.Left):
		m.scroll -= m.chartWidth() / 4
		m.clampScroll()

	case key.Matches(msg, keys.Right):
		m.scroll += m.chartWidth() / 4
		m.clampScroll()

	case key.Matches(msg, keys.Today):
		m.scrollToToday()

	case key.Matches(msg, keys.Weekly):
		m.setZoom(timeline.ZoomWeekly)

	case key.Matches(msg, keys.Monthly):
		m.setZoom(timeline.ZoomMonthly)

	case key.Matches(msg, keys.SixMonths):
		m.setZoom(timeline.ZoomSixMonths)

	case key.Matches(msg, keys.Yearly):
		m.setZoom(timeline.ZoomYearly)

	case key.Matches(msg, keys.Earlier):
		m.nudge(-1)

	case key.Matches(msg, keys.Later):
		m.nudge(1)

	case key.Matches(msg, keys.Edit):
		if row, ok := m.currentRow(); ok && !m.session.RequestEdit(row.ItemID) {
			m.message = fmt.Sprintf("%s is read-only for you", row.Name)
		}

	case key.Matches(msg, keys.Delete):
		if row, ok := m.currentRow(); ok && !m.session.RequestDelete(row.ItemID) {
			m.message = fmt.Sprintf("%s is read-only for you", row.Name)
		}

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		g := m.pending
		m.pending = nil
		m.mode = ModeNormal
		if g != nil {
			return m, m.deleteCmd(g.ID, g.Name)
		}
	case key.Matches(msg, keys.Cancel), key.Matches(msg, keys.Quit):
		m.pending = nil
		m.mode = ModeNormal
		m.message = "Delete cancelled"
	}
	return m, nil
}

func (m Model) deleteCmd(id, name string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return deleteResultMsg{name: name, err: session.Delete(ctx, id)}
	}
}

func (m *Model) setZoom(z timeline.ZoomMode) {
	if m.session.Zoom() == z {
		return
	}
	m.session.SetZoom(z)
	m.frame = m.session.Render()
	m.scrollToToday()
	m.message = fmt.Sprintf("Zoom: %s", z)
}

// nudge moves the selected grant's progress by whole days, driving the
// same controller the mouse does
func (m *Model) nudge(days int) {
	row, ok := m.currentRow()
	if !ok {
		return
	}
	if !row.Editable {
		m.message = fmt.Sprintf("%s is read-only for you", row.Name)
		return
	}
	g, ok := m.session.Item(row.ItemID)
	if !ok || !m.session.PointerDownOn(row.ItemID) {
		return
	}
	target := timeline.Day(g.ProgressDate).AddDate(0, 0, days).Add(12 * time.Hour)
	m.session.PointerMove(m.currentFrame().Mapper.DateToX(target), true)
	m.session.PointerUp()
	m.refresh()
}

// handleMouse turns terminal mouse events into pointer events on the
// surface. The name column and chrome are outside the surface.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	f := m.currentFrame()
	r := newRaster(f)
	col := msg.X - nameWidth - 1
	over := col >= 0 && col < m.chartWidth() &&
		msg.Y >= axisRow && msg.Y < firstRow+m.visibleRows()
	x := r.x(col + m.scroll)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.cursor--
		m.keepCursorVisible()
		return m, nil

	case msg.Button == tea.MouseButtonWheelDown:
		m.cursor++
		m.keepCursorVisible()
		return m, nil

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		row, ok := m.rowAtLine(msg.Y)
		if !ok {
			return m, nil
		}
		m.cursor = row.Index
		if over && m.session.PointerDown(x, row.Marker.Y) {
			logger.Debug("Drag started from mouse", logger.F("grant_id", row.ItemID))
		}

	case msg.Action == tea.MouseActionMotion:
		if !over && !m.session.Drag().Dragging {
			m.session.PointerLeave()
		} else {
			m.session.PointerMove(x, over)
		}

	case msg.Action == tea.MouseActionRelease:
		m.session.PointerUp()
	}

	m.refresh()
	return m, nil
}
