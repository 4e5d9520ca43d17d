package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/store"
	"github.com/existflow/grantline/internal/timeline"
	"github.com/existflow/grantline/internal/view"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeConfirmDelete
	ModeHelp
)

// Screen layout, in terminal cells
const (
	nameWidth = 20
	headerRow = 0
	axisRow   = 1
	firstRow  = 2
	// header, axis, status bar with its border, help line
	chromeRows = 5
)

// Options configure the timeline TUI
type Options struct {
	Store         store.Store
	Board         model.Board
	ViewerID      string
	Zoom          timeline.ZoomMode
	Style         timeline.Style
	Dark          bool
	ConfirmDelete bool
}

type requestKind int

const (
	requestEdit requestKind = iota
	requestDelete
)

// requestMsg carries an edit or delete request raised by the session
type requestMsg struct {
	kind  requestKind
	grant model.Grant
}

// writeErrorMsg reports a progress write the store rejected
type writeErrorMsg struct {
	grantID string
	err     error
}

// bridge carries session callbacks into the bubbletea loop. Session
// callbacks may run on any goroutine and must not block, so every send is
// non-blocking.
type bridge struct {
	changed  chan struct{}
	errs     chan writeErrorMsg
	requests chan requestMsg
}

func newBridge() *bridge {
	return &bridge{
		changed:  make(chan struct{}, 1),
		errs:     make(chan writeErrorMsg, 8),
		requests: make(chan requestMsg, 4),
	}
}

func (b *bridge) signal() {
	select {
	case b.changed <- struct{}{}:
	default:
	}
}

func (b *bridge) writeFailed(grantID string, err error) {
	select {
	case b.errs <- writeErrorMsg{grantID: grantID, err: err}:
	default:
		logger.Warn("Dropped write error notification", logger.F("grant_id", grantID))
	}
}

func (b *bridge) request(kind requestKind) func(model.Grant) {
	return func(g model.Grant) {
		select {
		case b.requests <- requestMsg{kind: kind, grant: g}:
		default:
		}
	}
}

// Model is the main TUI model
type Model struct {
	session       *view.Session
	bridge        *bridge
	board         model.Board
	viewerID      string
	confirmDelete bool

	// UI state
	width     int
	height    int
	mode      Mode
	cursor    int
	scroll    int // first visible surface column
	rowOffset int // first visible grant row
	pending   *model.Grant
	frame     *timeline.Frame
	help      help.Model

	message string
	errMsg  string
}

// NewModel mounts a timeline session for the board and wraps it in a model
func NewModel(opts Options) Model {
	logger.Info("Initializing TUI model", logger.F("board_id", opts.Board.ID), logger.F("viewer", opts.ViewerID))

	b := newBridge()
	session := view.New(opts.Store, view.Options{
		BoardID:      opts.Board.ID,
		ViewerID:     opts.ViewerID,
		Zoom:         opts.Zoom,
		Style:        opts.Style,
		Palette:      timeline.NewPalette(opts.Dark),
		OnEdit:       b.request(requestEdit),
		OnDelete:     b.request(requestDelete),
		OnChange:     b.signal,
		OnWriteError: b.writeFailed,
	})

	m := Model{
		session:       session,
		bridge:        b,
		board:         opts.Board,
		viewerID:      opts.ViewerID,
		confirmDelete: opts.ConfirmDelete,
		help:          help.New(),
	}
	m.frame = session.Render()
	m.scrollToToday()
	return m
}

// Close releases the model's subscriptions
func (m Model) Close() {
	m.session.Close()
}

// currentFrame returns the last rendered frame
func (m Model) currentFrame() *timeline.Frame {
	if m.frame != nil {
		return m.frame
	}
	return m.session.Frame()
}

// currentRow returns the selected grant's row
func (m Model) currentRow() (timeline.Row, bool) {
	f := m.currentFrame()
	if m.cursor < 0 || m.cursor >= len(f.Rows) {
		return timeline.Row{}, false
	}
	return f.Rows[m.cursor], true
}

func (m Model) chartWidth() int {
	w := m.width - nameWidth - 1
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) visibleRows() int {
	n := m.height - chromeRows
	if n < 1 {
		n = 1
	}
	return n
}

// rowAtLine maps a screen line to the grant row drawn on it
func (m Model) rowAtLine(line int) (timeline.Row, bool) {
	i := line - firstRow
	if i < 0 || i >= m.visibleRows() {
		return timeline.Row{}, false
	}
	f := m.currentFrame()
	idx := m.rowOffset + i
	if idx >= len(f.Rows) {
		return timeline.Row{}, false
	}
	return f.Rows[idx], true
}

func (m *Model) clampScroll() {
	r := newRaster(m.currentFrame())
	m.scroll = clampInt(m.scroll, 0, r.cols-m.chartWidth())
}

// scrollToToday puts the today line a third of the way into the view
func (m *Model) scrollToToday() {
	f := m.currentFrame()
	r := newRaster(f)
	m.scroll = r.col(f.TodayX) - m.chartWidth()/3
	m.clampScroll()
}

// keepCursorVisible clamps the cursor to the rows and scrolls to it
func (m *Model) keepCursorVisible() {
	rows := len(m.currentFrame().Rows)
	m.cursor = clampInt(m.cursor, 0, rows-1)
	if m.cursor < m.rowOffset {
		m.rowOffset = m.cursor
	}
	if m.cursor >= m.rowOffset+m.visibleRows() {
		m.rowOffset = m.cursor - m.visibleRows() + 1
	}
	m.rowOffset = clampInt(m.rowOffset, 0, rows-m.visibleRows())
}

// refresh re-renders the session into the model
func (m *Model) refresh() {
	m.frame = m.session.Render()
	m.keepCursorVisible()
	m.clampScroll()
}
