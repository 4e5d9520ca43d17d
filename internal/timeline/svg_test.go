package timeline

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
)

func TestSVGEscapesText(t *testing.T) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.March, 1))
	g.Name = `R&D <"alpha">`
	ms := map[string][]model.Milestone{
		"g1": {{ID: "m1", Number: 1, TargetDate: Date(2026, time.February, 1), Label: "a<b"}},
	}
	f := NewRenderer(DefaultStyle()).Render(RenderInput{Items: []model.Grant{g}, Milestones: ms, Mode: ZoomMonthly, Now: testNow})
	svg := f.SVG()

	if strings.Contains(svg, `<"alpha">`) || strings.Contains(svg, "a<b") {
		t.Errorf("unescaped text in svg:\n%s", svg)
	}
	if !strings.Contains(svg, "R&amp;D &lt;&quot;alpha&quot;&gt;") {
		t.Errorf("escaped grant name missing:\n%s", svg)
	}
	if !strings.Contains(svg, "Milestone 1: a&lt;b") {
		t.Errorf("escaped milestone tooltip missing")
	}
}

func TestSVGStructure(t *testing.T) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.March, 1))
	g.AssignedUsers = []string{"alice"}
	f := NewRenderer(DefaultStyle()).Render(RenderInput{Items: []model.Grant{g}, Mode: ZoomMonthly, ViewerID: "alice", Now: testNow})

	var buf bytes.Buffer
	if err := f.WriteSVG(&buf); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	svg := buf.String()

	for _, want := range []string{
		`<svg width="2650" height="130"`,
		`data-zoom="monthly"`,
		`transform="translate(250,0)"`,
		`class="progress-marker progress-marker-draggable"`,
		`cursor: ew-resize`,
		`class="today-line"`,
		">TODAY</text>",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("svg not terminated")
	}
}

func TestSVGWithoutNameColumn(t *testing.T) {
	style := DefaultStyle()
	style.NameColumn = 0
	f := NewRenderer(style).Render(RenderInput{Mode: ZoomYearly, Now: testNow})
	svg := f.SVG()
	if strings.Contains(svg, "grant-names-column") {
		t.Error("name column drawn when disabled")
	}
	if !strings.Contains(svg, "NO GRANTS YET") {
		t.Error("empty placeholder missing")
	}
}

func TestNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{20, "20"},
		{1.004, "1"},
		{12.346, "12.35"},
		{-3.5, "-3.5"},
	}
	for _, tt := range tests {
		if got := num(tt.in); got != tt.want {
			t.Errorf("num(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("a rather long grant name", 10); got != "a rathe..." {
		t.Errorf("truncate long = %q", got)
	}
	if got := truncate("ééééééééééé", 6); got != "ééé..." {
		t.Errorf("truncate runes = %q", got)
	}
}
