package timeline

import (
	"strings"
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
)

var testNow = time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)

func findNode(nodes []Node, match func(Node) bool) (Node, bool) {
	for _, n := range nodes {
		if match(n) {
			return n, true
		}
		if c, ok := findNode(n.Children, match); ok {
			return c, true
		}
	}
	return Node{}, false
}

func byClass(class string) func(Node) bool {
	return func(n Node) bool { return n.Class == class }
}

func TestRenderGrantWithoutProgress(t *testing.T) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.March, 1))
	g.AssignedUsers = []string{"alice"}

	f := NewRenderer(DefaultStyle()).Render(RenderInput{
		Items:    []model.Grant{g},
		Mode:     ZoomMonthly,
		ViewerID: "alice",
		Palette:  NewPalette(false),
		Now:      testNow,
	})

	if len(f.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(f.Rows))
	}
	row := f.Rows[0]
	if row.Y != 60 || row.BarY != 70 || row.BarHeight != 30 {
		t.Errorf("row geometry y=%v barY=%v h=%v", row.Y, row.BarY, row.BarHeight)
	}
	if row.BarWidth() <= 0 {
		t.Errorf("bar width = %v, want > 0", row.BarWidth())
	}
	if row.HasProgress {
		t.Error("progress bar drawn for progress == start")
	}
	if _, ok := findNode(f.Nodes, byClass("timeline-bar-progress")); ok {
		t.Error("unexpected progress rect in visual tree")
	}
	if !row.Editable {
		t.Error("assigned viewer should be able to edit")
	}
	marker, ok := findNode(f.Nodes, func(n Node) bool { return n.Kind == NodePolygon })
	if !ok {
		t.Fatal("progress marker missing")
	}
	if marker.Class != "progress-marker progress-marker-draggable" || marker.Cursor != "ew-resize" {
		t.Errorf("marker class=%q cursor=%q", marker.Class, marker.Cursor)
	}
	if f.Height != 50+60+20 {
		t.Errorf("height = %v, want 130", f.Height)
	}
}

func TestRenderProgressAndPermissions(t *testing.T) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.March, 1))
	g.ProgressDate = Date(2026, time.February, 1)
	g.AssignedUsers = []string{"bob"}
	g.Color = "#ff0000"

	f := NewRenderer(DefaultStyle()).Render(RenderInput{
		Items:    []model.Grant{g},
		Mode:     ZoomWeekly,
		ViewerID: "alice",
		Now:      testNow,
	})

	row := f.Rows[0]
	if !row.HasProgress {
		t.Fatal("progress bar missing")
	}
	if row.Color != "#ff0000" {
		t.Errorf("own colour not used: %q", row.Color)
	}
	progress, _ := findNode(f.Nodes, byClass("timeline-bar-progress"))
	if progress.Width != row.ProgressX-row.StartX || progress.Opacity != 1 {
		t.Errorf("progress rect width=%v opacity=%v", progress.Width, progress.Opacity)
	}
	bg, _ := findNode(f.Nodes, byClass("timeline-bar-bg"))
	if bg.Opacity != 0.3 {
		t.Errorf("background opacity = %v", bg.Opacity)
	}
	if row.Editable {
		t.Error("unassigned viewer should not edit")
	}
	marker, _ := findNode(f.Nodes, func(n Node) bool { return n.Kind == NodePolygon })
	if marker.Class != "progress-marker" {
		t.Errorf("static marker class = %q", marker.Class)
	}
}

func TestRenderEmptyBoard(t *testing.T) {
	f := NewRenderer(DefaultStyle()).Render(RenderInput{Mode: ZoomMonthly, Now: testNow})
	if !f.Empty {
		t.Error("frame should be marked empty")
	}
	if f.Scale.TotalDays != 365 {
		t.Errorf("TotalDays = %v", f.Scale.TotalDays)
	}
	if _, ok := findNode(f.Nodes, byClass("timeline-empty")); !ok {
		t.Error("empty placeholder missing")
	}
	if f.Height != 130 {
		t.Errorf("placeholder frame height = %v", f.Height)
	}
}

func TestRenderMalformedGrant(t *testing.T) {
	g := grant("bad", Date(2026, time.March, 1), Date(2026, time.January, 1))
	f := NewRenderer(DefaultStyle()).Render(RenderInput{Items: []model.Grant{g}, Mode: ZoomMonthly, Now: testNow})
	if f.Rows[0].BarWidth() >= 0 {
		t.Errorf("bar width = %v, want negative", f.Rows[0].BarWidth())
	}
}

func TestRenderMilestones(t *testing.T) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.June, 1))
	ms := map[string][]model.Milestone{
		"g1": {
			{ID: "m1", GrantID: "g1", Number: 1, TargetDate: Date(2026, time.February, 15), Label: "Report"},
			{ID: "m2", GrantID: "g1", Number: 2, TargetDate: Date(2026, time.April, 1)},
		},
	}
	f := NewRenderer(DefaultStyle()).Render(RenderInput{Items: []model.Grant{g}, Milestones: ms, Mode: ZoomMonthly, Now: testNow})

	marks := f.Rows[0].Milestones
	if len(marks) != 2 {
		t.Fatalf("got %d milestones", len(marks))
	}
	if want := "Milestone 1: Report\nTarget: Feb 15, 2026"; marks[0].Tooltip != want {
		t.Errorf("tooltip = %q, want %q", marks[0].Tooltip, want)
	}
	if marks[1].Tooltip != "" {
		t.Errorf("unlabelled milestone has tooltip %q", marks[1].Tooltip)
	}
	if marks[0].X != f.Mapper.DateToX(Date(2026, time.February, 15)) {
		t.Errorf("milestone x = %v", marks[0].X)
	}
	label, ok := findNode(f.Nodes, byClass("milestone-label"))
	if !ok || label.Text != "M1" {
		t.Errorf("milestone label = %q", label.Text)
	}
	circle, _ := findNode(f.Nodes, byClass("milestone-circle"))
	if circle.R != 10 {
		t.Errorf("milestone radius = %v", circle.R)
	}
}

func TestRenderHoverSuppressedWhileDragging(t *testing.T) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.March, 1))
	hover := Date(2026, time.January, 20)
	in := RenderInput{Items: []model.Grant{g}, Mode: ZoomMonthly, Now: testNow, HoverDate: &hover}

	r := NewRenderer(DefaultStyle())
	if f := r.Render(in); f.Hover == nil {
		t.Error("hover tooltip missing")
	} else if _, ok := findNode(f.Nodes, byClass("date-tooltip")); !ok {
		t.Error("hover node missing")
	}

	in.Dragging = true
	if f := r.Render(in); f.Hover != nil {
		t.Error("hover shown while dragging")
	}
}

func TestRenderTodayLine(t *testing.T) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.March, 1))
	f := NewRenderer(DefaultStyle()).Render(RenderInput{Items: []model.Grant{g}, Mode: ZoomMonthly, Now: testNow})
	line, ok := findNode(f.Nodes, byClass("today-line"))
	if !ok {
		t.Fatal("today line missing")
	}
	if line.X1 != f.Mapper.DateToX(testNow) || line.Dash != "8,8" {
		t.Errorf("today line x=%v dash=%q", line.X1, line.Dash)
	}
	label, _ := findNode(f.Nodes, byClass("today-label"))
	if label.Text != "TODAY" {
		t.Errorf("today label = %q", label.Text)
	}
}

func TestHitTest(t *testing.T) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.March, 1))
	g.ProgressDate = Date(2026, time.February, 1)
	f := NewRenderer(DefaultStyle()).Render(RenderInput{Items: []model.Grant{g}, Mode: ZoomMonthly, Now: testNow})
	m := f.Rows[0].Marker

	if row, ok := f.HitTest(m.X+3, m.Y-3); !ok || row.ItemID != "g1" {
		t.Errorf("HitTest inside marker = %v, %v", row.ItemID, ok)
	}
	if _, ok := f.HitTest(m.X+8, m.Y+8); ok {
		t.Error("HitTest outside the diamond reported a hit")
	}
	if row, ok := f.RowAt(m.Y); !ok || row.ItemID != "g1" {
		t.Errorf("RowAt = %v, %v", row.ItemID, ok)
	}
	if _, ok := f.RowAt(5); ok {
		t.Error("RowAt in header reported a row")
	}
}

func TestRenderRowOrderFollowsInput(t *testing.T) {
	items := []model.Grant{
		grant("b", Date(2026, time.February, 1), Date(2026, time.March, 1)),
		grant("a", Date(2026, time.January, 1), Date(2026, time.March, 1)),
	}
	f := NewRenderer(DefaultStyle()).Render(RenderInput{Items: items, Mode: ZoomMonthly, Now: testNow})
	var ids []string
	for _, r := range f.Rows {
		ids = append(ids, r.ItemID)
	}
	if strings.Join(ids, ",") != "b,a" {
		t.Errorf("row order = %v", ids)
	}
}
