package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/grantline/internal/timeline"
)

// pxPerColumn is how many surface pixels one terminal column covers
const pxPerColumn = 8

type cellKind int

const (
	cellBlank cellKind = iota
	cellGrid
	cellToday
	cellHover
	cellBar
	cellProgress
	cellMarker
	cellMilestone
	cellLabel
)

type cell struct {
	ch   rune
	kind cellKind
}

// raster maps a frame's pixel space onto terminal columns. Every column
// covers Width/cols pixels.
type raster struct {
	cols  int
	colPx float64
}

func newRaster(f *timeline.Frame) raster {
	cols := int(math.Ceil(f.Width / pxPerColumn))
	if cols < 1 {
		cols = 1
	}
	return raster{cols: cols, colPx: f.Width / float64(cols)}
}

// col returns the column covering surface offset x
func (r raster) col(x float64) int {
	return clampInt(int(math.Floor(x/r.colPx)), 0, r.cols-1)
}

// x returns the surface offset at the centre of a column
func (r raster) x(col int) float64 {
	return (float64(col) + 0.5) * r.colPx
}

func (r raster) blank() []cell {
	cells := make([]cell, r.cols)
	for i := range cells {
		cells[i] = cell{ch: ' '}
	}
	return cells
}

// background draws the gridlines, today line and hover line shared by
// every row
func (r raster) background(f *timeline.Frame) []cell {
	cells := r.blank()
	for _, g := range f.Grid {
		cells[r.col(f.Mapper.DateToX(g.Date))] = cell{ch: '│', kind: cellGrid}
	}
	cells[r.col(f.TodayX)] = cell{ch: '┆', kind: cellToday}
	if f.Hover != nil {
		cells[r.col(f.Mapper.DateToX(*f.Hover))] = cell{ch: '┊', kind: cellHover}
	}
	return cells
}

// axis places the gridline labels, dropping any that would overlap the
// previous one
func (r raster) axis(f *timeline.Frame) []cell {
	cells := r.blank()
	next := 0
	put := func(col int, text string, kind cellKind) {
		runes := []rune(text)
		start := col - len(runes)/2
		if start < next || start < 0 || start+len(runes) > r.cols {
			return
		}
		for i, ch := range runes {
			cells[start+i] = cell{ch: ch, kind: kind}
		}
		next = start + len(runes) + 1
	}
	for _, g := range f.Grid {
		put(r.col(f.Mapper.DateToX(g.Date)), g.Label, cellLabel)
	}
	if f.Hover != nil {
		next = 0
		put(r.col(f.Mapper.DateToX(*f.Hover)), timeline.FormatDate(*f.Hover), cellHover)
	}
	return cells
}

// row draws one grant over the background
func (r raster) row(f *timeline.Frame, row timeline.Row) []cell {
	cells := r.background(f)
	if row.BarWidth() >= 0 {
		start, end := r.col(row.StartX), r.col(row.EndX)
		progress := start - 1
		if row.HasProgress {
			progress = r.col(row.ProgressX)
		}
		for c := start; c <= end; c++ {
			if c <= progress {
				cells[c] = cell{ch: '█', kind: cellProgress}
			} else {
				cells[c] = cell{ch: '░', kind: cellBar}
			}
		}
	}
	for _, m := range row.Milestones {
		cells[r.col(m.X)] = cell{ch: '▲', kind: cellMilestone}
	}
	cells[r.col(row.Marker.X)] = cell{ch: '◆', kind: cellMarker}
	return cells
}

// paint renders a window of cells, merging runs of the same kind
func paint(cells []cell, color string) string {
	var b strings.Builder
	var run []rune
	kind := cellBlank
	flush := func() {
		if len(run) > 0 {
			b.WriteString(styleFor(kind, color).Render(string(run)))
			run = run[:0]
		}
	}
	for _, c := range cells {
		if c.kind != kind {
			flush()
			kind = c.kind
		}
		run = append(run, c.ch)
	}
	flush()
	return b.String()
}

func styleFor(kind cellKind, color string) lipgloss.Style {
	switch kind {
	case cellGrid:
		return GridStyle
	case cellToday:
		return TodayStyle
	case cellHover:
		return HoverStyle
	case cellBar, cellProgress:
		return barStyle(color)
	case cellMarker:
		return MarkerStyle
	case cellMilestone:
		return MilestoneStyle
	case cellLabel:
		return AxisStyle
	default:
		return lipgloss.NewStyle()
	}
}

// window returns cells[from:from+width], padded with blanks
func window(cells []cell, from, width int) []cell {
	out := make([]cell, 0, width)
	for i := from; i < from+width; i++ {
		if i >= 0 && i < len(cells) {
			out = append(out, cells[i])
		} else {
			out = append(out, cell{ch: ' '})
		}
	}
	return out
}
