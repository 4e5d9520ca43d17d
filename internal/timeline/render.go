package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/existflow/grantline/internal/model"
)

// Geometry of a row, relative to the row's top edge
const (
	barInset         = 10
	markerHalfSize   = 10
	milestoneRadius  = 10
	milestoneOverrun = 5
	gridLabelOffset  = 10
	todayLabelOffset = 30
)

// NodeKind identifies the shape drawn by a Node
type NodeKind int

const (
	NodeGroup NodeKind = iota
	NodeRect
	NodeLine
	NodeCircle
	NodePolygon
	NodeText
)

// Point is a position on the surface
type Point struct {
	X float64
	Y float64
}

// Node is one element of the rendered visual tree. Only the fields that
// apply to Kind are set.
type Node struct {
	Kind  NodeKind
	Class string

	// Rect
	X, Y, Width, Height float64
	// Line
	X1, Y1, X2, Y2 float64
	// Circle
	CX, CY, R float64
	// Polygon
	Points []Point
	// Text
	Text     string
	Anchor   string
	Baseline string

	Fill        string
	Stroke      string
	StrokeWidth float64
	Dash        string
	Opacity     float64
	Title       string
	Cursor      string

	ItemID   string
	Children []Node
}

// MilestoneMark is the placed geometry of a milestone
type MilestoneMark struct {
	ID      string
	Number  int
	X       float64
	Label   string
	Tooltip string
}

// Row is the placed geometry of one grant
type Row struct {
	Index     int
	ItemID    string
	Name      string
	Color     string
	Y         float64
	StartX    float64
	EndX      float64
	ProgressX float64
	BarY      float64
	BarHeight float64
	// HasProgress is false when the progress bar is omitted
	HasProgress bool
	Marker      Point
	Editable    bool
	Milestones  []MilestoneMark
}

// BarWidth is negative when the grant ends before it starts
func (r Row) BarWidth() float64 {
	return r.EndX - r.StartX
}

// Frame is the result of one render pass
type Frame struct {
	Mode   ZoomMode
	Width  float64
	Height float64
	Scale  Scale
	Mapper Mapper
	Grid   []GridLine
	Rows   []Row
	TodayX float64
	Hover  *time.Time
	Empty  bool
	Style  Style
	Nodes  []Node
}

// RenderInput is everything one render pass depends on
type RenderInput struct {
	Items      []model.Grant
	Milestones map[string][]model.Milestone
	Mode       ZoomMode
	ViewerID   string
	Palette    *Palette
	Now        time.Time
	// HoverDate is shown as a tooltip unless Dragging is set
	HoverDate *time.Time
	Dragging  bool
}

// Renderer composes frames from live data
type Renderer struct {
	Style Style
}

// NewRenderer creates a renderer with the given style
func NewRenderer(style Style) *Renderer {
	return &Renderer{Style: style.withDefaults()}
}

// Render lays out one frame. It never fails: malformed grants are drawn as
// best it can.
func (r *Renderer) Render(in RenderInput) *Frame {
	style := r.Style.withDefaults()
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	layout := LayoutFor(in.Mode)
	scale := CalculateScale(in.Items, in.Mode, now)
	mapper := NewMapper(layout, scale)

	rows := len(in.Items)
	if rows == 0 {
		rows = 1
	}

	f := &Frame{
		Mode:   in.Mode,
		Width:  layout.Width,
		Height: layout.Height(rows),
		Scale:  scale,
		Mapper: mapper,
		Grid:   GenerateGrid(scale, in.Mode),
		TodayX: mapper.DateToX(now),
		Empty:  len(in.Items) == 0,
		Style:  style,
	}
	if in.HoverDate != nil && !in.Dragging {
		h := *in.HoverDate
		f.Hover = &h
	}

	f.Nodes = append(f.Nodes, r.gridNodes(f, layout)...)
	f.Nodes = append(f.Nodes, r.todayNodes(f, layout)...)

	if f.Empty {
		f.Nodes = append(f.Nodes, Node{
			Kind:   NodeText,
			Class:  "timeline-empty",
			X:      layout.Width / 2,
			Y:      layout.RowY(0) + layout.RowHeight/2,
			Text:   "NO GRANTS YET",
			Anchor: "middle",
			Fill:   style.MutedText,
		})
	}

	for i, item := range in.Items {
		row := r.layoutRow(i, item, in, mapper, layout, style)
		f.Rows = append(f.Rows, row)
		f.Nodes = append(f.Nodes, rowNode(row, style))
	}

	if f.Hover != nil {
		f.Nodes = append(f.Nodes, hoverNode(f, mapper, style))
	}
	return f
}

func (r *Renderer) gridNodes(f *Frame, layout Layout) []Node {
	nodes := make([]Node, 0, 2*len(f.Grid))
	for _, g := range f.Grid {
		x := f.Mapper.DateToX(g.Date)
		nodes = append(nodes, Node{
			Kind:        NodeLine,
			Class:       "calendar-grid-line",
			X1:          x,
			Y1:          layout.Padding.Top,
			X2:          x,
			Y2:          f.Height,
			Stroke:      f.Style.Grid,
			StrokeWidth: 1,
		})
	}
	for _, g := range f.Grid {
		nodes = append(nodes, Node{
			Kind:   NodeText,
			Class:  "calendar-label",
			X:      f.Mapper.DateToX(g.Date),
			Y:      layout.Padding.Top - gridLabelOffset,
			Text:   g.Label,
			Anchor: "middle",
			Fill:   f.Style.MutedText,
		})
	}
	return nodes
}

func (r *Renderer) todayNodes(f *Frame, layout Layout) []Node {
	return []Node{
		{
			Kind:        NodeLine,
			Class:       "today-line",
			X1:          f.TodayX,
			Y1:          layout.Padding.Top,
			X2:          f.TodayX,
			Y2:          f.Height,
			Stroke:      f.Style.Today,
			StrokeWidth: 2,
			Dash:        "8,8",
		},
		{
			Kind:   NodeText,
			Class:  "today-label",
			X:      f.TodayX,
			Y:      layout.Padding.Top - todayLabelOffset,
			Text:   "TODAY",
			Anchor: "middle",
			Fill:   f.Style.Today,
		},
	}
}

func (r *Renderer) layoutRow(index int, item model.Grant, in RenderInput, mapper Mapper, layout Layout, style Style) Row {
	y := layout.RowY(index)
	barY := y + barInset
	barHeight := layout.RowHeight - 2*barInset

	color := item.Color
	if color == "" && in.Palette != nil {
		color = in.Palette.ColorFor(item.ID)
	}
	if color == "" {
		color = style.FallbackColor
	}

	row := Row{
		Index:     index,
		ItemID:    item.ID,
		Name:      item.Name,
		Color:     color,
		Y:         y,
		StartX:    mapper.DateToX(item.StartDate),
		EndX:      mapper.DateToX(item.EndDate),
		ProgressX: mapper.DateToX(item.ProgressDate),
		BarY:      barY,
		BarHeight: barHeight,
		Editable:  item.IsAssigned(in.ViewerID),
	}
	row.HasProgress = row.ProgressX > row.StartX
	row.Marker = Point{X: row.ProgressX, Y: barY + barHeight/2}

	for _, ms := range in.Milestones[item.ID] {
		mark := MilestoneMark{
			ID:     ms.ID,
			Number: ms.Number,
			X:      mapper.DateToX(ms.TargetDate),
			Label:  ms.Label,
		}
		if ms.Label != "" {
			mark.Tooltip = fmt.Sprintf("Milestone %d: %s\nTarget: %s", ms.Number, ms.Label, FormatDate(ms.TargetDate))
		}
		row.Milestones = append(row.Milestones, mark)
	}
	return row
}

// rowNode builds the visual group for one row: background bar, progress
// bar, milestones, then the progress marker on top
func rowNode(row Row, style Style) Node {
	g := Node{Kind: NodeGroup, Class: "grant-row", ItemID: row.ItemID}

	g.Children = append(g.Children, Node{
		Kind:        NodeRect,
		Class:       "timeline-bar-bg",
		X:           row.StartX,
		Y:           row.BarY,
		Width:       row.BarWidth(),
		Height:      row.BarHeight,
		Fill:        row.Color,
		Opacity:     0.3,
		Stroke:      style.Border,
		StrokeWidth: 2,
	})

	if row.HasProgress {
		g.Children = append(g.Children, Node{
			Kind:        NodeRect,
			Class:       "timeline-bar-progress",
			X:           row.StartX,
			Y:           row.BarY,
			Width:       row.ProgressX - row.StartX,
			Height:      row.BarHeight,
			Fill:        row.Color,
			Opacity:     1,
			Stroke:      style.Border,
			StrokeWidth: 2,
		})
	}

	cy := row.BarY + row.BarHeight/2
	for _, m := range row.Milestones {
		g.Children = append(g.Children, Node{
			Kind:  NodeGroup,
			Class: "milestone",
			Title: m.Tooltip,
			Children: []Node{
				{
					Kind:        NodeLine,
					X1:          m.X,
					Y1:          row.BarY - milestoneOverrun,
					X2:          m.X,
					Y2:          row.BarY + row.BarHeight + milestoneOverrun,
					Stroke:      row.Color,
					StrokeWidth: 2,
					Dash:        "4,2",
					Opacity:     0.6,
				},
				{
					Kind:        NodeCircle,
					Class:       "milestone-circle",
					CX:          m.X,
					CY:          cy,
					R:           milestoneRadius,
					Stroke:      row.Color,
					StrokeWidth: 2,
					Fill:        style.MilestoneFill,
				},
				{
					Kind:     NodeText,
					Class:    "milestone-number",
					X:        m.X,
					Y:        cy,
					Text:     fmt.Sprintf("%d", m.Number),
					Anchor:   "middle",
					Baseline: "middle",
					Fill:     style.Text,
				},
				{
					Kind:   NodeText,
					Class:  "milestone-label",
					X:      m.X,
					Y:      row.BarY - gridLabelOffset,
					Text:   fmt.Sprintf("M%d", m.Number),
					Anchor: "middle",
					Fill:   style.Text,
				},
			},
		})
	}

	marker := Node{
		Kind:        NodePolygon,
		Class:       "progress-marker",
		Points:      diamond(row.Marker, markerHalfSize),
		Fill:        style.Marker,
		Stroke:      style.MarkerStroke,
		StrokeWidth: 2,
		Cursor:      "default",
		ItemID:      row.ItemID,
	}
	if row.Editable {
		marker.Class = "progress-marker progress-marker-draggable"
		marker.Cursor = "ew-resize"
	}
	g.Children = append(g.Children, marker)
	return g
}

func hoverNode(f *Frame, mapper Mapper, style Style) Node {
	x := mapper.DateToX(*f.Hover)
	text := FormatDate(*f.Hover)
	w := estimateTextWidth(text, style.FontSize) + 16
	return Node{
		Kind:  NodeGroup,
		Class: "date-tooltip",
		Children: []Node{
			{Kind: NodeRect, X: x - w/2, Y: 10, Width: w, Height: style.FontSize + 10, Fill: style.Text, Opacity: 0.85},
			{Kind: NodeText, X: x, Y: 10 + style.FontSize + 2, Text: text, Anchor: "middle", Fill: style.Background},
		},
	}
}

// diamond returns the four corners of a diamond centred on c
func diamond(c Point, half float64) []Point {
	return []Point{
		{X: c.X, Y: c.Y - half},
		{X: c.X + half, Y: c.Y},
		{X: c.X, Y: c.Y + half},
		{X: c.X - half, Y: c.Y},
	}
}

// estimateTextWidth approximates rendered text width from character count
func estimateTextWidth(text string, fontSize float64) float64 {
	return float64(len(text)) * fontSize * 0.6
}

// HitTest returns the row whose progress marker contains the point
func (f *Frame) HitTest(x, y float64) (Row, bool) {
	for i := len(f.Rows) - 1; i >= 0; i-- {
		row := f.Rows[i]
		dx := math.Abs(x - row.Marker.X)
		dy := math.Abs(y - row.Marker.Y)
		if dx+dy <= markerHalfSize {
			return row, true
		}
	}
	return Row{}, false
}

// RowAt returns the row covering surface offset y
func (f *Frame) RowAt(y float64) (Row, bool) {
	for _, row := range f.Rows {
		if y >= row.Y && y < row.Y+f.Mapper.Layout().RowHeight {
			return row, true
		}
	}
	return Row{}, false
}

// Row returns the placed row of a grant
func (f *Frame) Row(itemID string) (Row, bool) {
	for _, row := range f.Rows {
		if row.ItemID == itemID {
			return row, true
		}
	}
	return Row{}, false
}
