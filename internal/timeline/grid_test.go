package timeline

import (
	"math"
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
)

func TestGenerateGridCoversWindow(t *testing.T) {
	items := []model.Grant{grant("a", Date(2026, time.January, 1), Date(2026, time.December, 31))}

	for _, mode := range ZoomModes {
		t.Run(mode.String(), func(t *testing.T) {
			s := CalculateScale(items, mode, time.Now())
			lines := GenerateGrid(s, mode)

			interval := Days(mode.GridInterval())
			want := int(math.Ceil(s.TotalDays/interval)) + 1
			if len(lines) != want {
				t.Fatalf("got %d lines, want %d", len(lines), want)
			}
			if !lines[0].Date.Equal(s.MinDate) {
				t.Errorf("first line at %v, want %v", lines[0].Date, s.MinDate)
			}
			for i := 1; i < len(lines); i++ {
				if got := lines[i].Date.Sub(lines[i-1].Date); got != mode.GridInterval() {
					t.Errorf("line %d spacing %v, want %v", i, got, mode.GridInterval())
				}
			}
			if last := lines[len(lines)-1].Date; last.Before(s.MaxDate) {
				t.Errorf("last line %v before window end %v", last, s.MaxDate)
			}
		})
	}
}

func TestGenerateGridYearly(t *testing.T) {
	items := []model.Grant{grant("a", Date(2026, time.January, 1), Date(2026, time.December, 31))}
	s := CalculateScale(items, ZoomYearly, time.Now())
	// 364 days plus 60 on each side
	if s.TotalDays != 484 {
		t.Fatalf("TotalDays = %v, want 484", s.TotalDays)
	}
	lines := GenerateGrid(s, ZoomYearly)
	if len(lines) != 7 {
		t.Errorf("got %d lines, want 7", len(lines))
	}
	if lines[0].Label != "Nov 2025" {
		t.Errorf("first label = %q, want Nov 2025", lines[0].Label)
	}
}

func TestGenerateGridEmptyBoard(t *testing.T) {
	s := CalculateScale(nil, ZoomMonthly, Date(2026, time.March, 3))
	lines := GenerateGrid(s, ZoomMonthly)
	if len(lines) != 14 {
		t.Errorf("got %d lines, want 14", len(lines))
	}
}

func TestGenerateGridDegenerate(t *testing.T) {
	d := Date(2026, time.January, 1)
	for _, s := range []Scale{
		{MinDate: d, MaxDate: d},
		{MinDate: d, MaxDate: d.Add(-day), TotalDays: -1},
	} {
		lines := GenerateGrid(s, ZoomWeekly)
		if len(lines) != 1 || !lines[0].Date.Equal(d) {
			t.Errorf("GenerateGrid(%v) = %v, want one line at min", s, lines)
		}
	}
}
