package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/timeline"
)

func testFrame(t *testing.T) *timeline.Frame {
	t.Helper()
	r := timeline.NewRenderer(timeline.Style{})
	return r.Render(timeline.RenderInput{
		Items:    testGrants(),
		Mode:     timeline.ZoomMonthly,
		ViewerID: "alice",
		Palette:  timeline.NewPalette(false),
		Now:      time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
}

func TestRasterColumns(t *testing.T) {
	f := testFrame(t)
	r := newRaster(f)
	if r.cols != 300 {
		t.Fatalf("cols = %d, want 300", r.cols)
	}

	tests := []struct {
		x    float64
		want int
	}{
		{-50, 0},
		{0, 0},
		{7.9, 0},
		{8, 1},
		{2399, 299},
		{5000, 299},
	}
	for _, tc := range tests {
		if got := r.col(tc.x); got != tc.want {
			t.Errorf("col(%v) = %d, want %d", tc.x, got, tc.want)
		}
	}
	for _, c := range []int{0, 17, 299} {
		if got := r.col(r.x(c)); got != c {
			t.Errorf("col(x(%d)) = %d", c, got)
		}
	}
}

func TestRasterRow(t *testing.T) {
	f := testFrame(t)
	r := newRaster(f)
	row := f.Rows[0]
	cells := r.row(f, row)

	if c := cells[r.col(row.Marker.X)]; c.kind != cellMarker {
		t.Errorf("marker cell = %+v", c)
	}
	if c := cells[r.col(row.StartX)]; c.kind != cellProgress {
		t.Errorf("start cell = %+v, want progress", c)
	}
	if c := cells[r.col(row.EndX)]; c.kind != cellBar {
		t.Errorf("end cell = %+v, want bar", c)
	}
	if c := cells[r.col(f.TodayX)]; c.kind != cellToday && c.kind != cellBar && c.kind != cellProgress {
		t.Errorf("today cell = %+v", c)
	}
}

func TestRasterRowWithMilestone(t *testing.T) {
	r := timeline.NewRenderer(timeline.Style{})
	grants := testGrants()[:1]
	f := r.Render(timeline.RenderInput{
		Items: grants,
		Milestones: map[string][]model.Milestone{
			"a": {{ID: "m1", GrantID: "a", Number: 1, TargetDate: timeline.Date(2026, time.May, 1)}},
		},
		Mode:    timeline.ZoomMonthly,
		Palette: timeline.NewPalette(false),
		Now:     time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	ras := newRaster(f)
	cells := ras.row(f, f.Rows[0])
	if c := cells[ras.col(f.Rows[0].Milestones[0].X)]; c.kind != cellMilestone {
		t.Errorf("milestone cell = %+v", c)
	}
}

func TestRasterAxisSkipsOverlappingLabels(t *testing.T) {
	f := testFrame(t)
	r := newRaster(f)
	axis := string(runesOf(r.axis(f)))
	if !strings.Contains(axis, f.Grid[0].Label) && !strings.Contains(axis, f.Grid[1].Label) {
		t.Errorf("axis has no labels: %q", axis)
	}

	r.cols = 3
	narrow := r.axis(f)
	for _, c := range narrow {
		if c.kind != cellBlank {
			t.Fatalf("label drawn in a 3-column axis: %q", string(runesOf(narrow)))
		}
	}
}

func TestWindowPadsOutOfRange(t *testing.T) {
	cells := []cell{{ch: 'a'}, {ch: 'b'}}
	got := string(runesOf(window(cells, 1, 4)))
	if got != "b   " {
		t.Errorf("window = %q", got)
	}
}

func TestPaintKeepsText(t *testing.T) {
	cells := []cell{{ch: 'a'}, {ch: '█', kind: cellProgress}, {ch: '░', kind: cellBar}, {ch: '◆', kind: cellMarker}}
	out := paint(cells, "#4ECDC4")
	for _, want := range []string{"a", "█", "░", "◆"} {
		if !strings.Contains(out, want) {
			t.Errorf("paint output missing %q: %q", want, out)
		}
	}
}

func runesOf(cells []cell) []rune {
	out := make([]rune, len(cells))
	for i, c := range cells {
		out[i] = c.ch
	}
	return out
}
