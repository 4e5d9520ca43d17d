package timeline

import (
	"math"
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
)

func testMapper(mode ZoomMode) Mapper {
	items := []model.Grant{grant("a", Date(2026, time.January, 1), Date(2026, time.March, 1))}
	return NewMapper(LayoutFor(mode), CalculateScale(items, mode, time.Now()))
}

func TestMapperEndpoints(t *testing.T) {
	for _, mode := range ZoomModes {
		m := testMapper(mode)
		lo, hi := m.Layout().Band()
		if got := m.DateToX(m.Scale().MinDate); got != lo {
			t.Errorf("%s: DateToX(min) = %v, want %v", mode, got, lo)
		}
		if got := m.DateToX(m.Scale().MaxDate); math.Abs(got-hi) > 1e-9 {
			t.Errorf("%s: DateToX(max) = %v, want %v", mode, got, hi)
		}
	}
}

func TestMapperRoundTrip(t *testing.T) {
	m := testMapper(ZoomMonthly)
	for d := Date(2025, time.December, 1); d.Before(Date(2026, time.April, 1)); d = d.Add(3 * day) {
		back := m.XToDate(m.DateToX(d))
		if diff := back.Sub(d); diff > time.Second || diff < -time.Second {
			t.Errorf("round trip of %v drifted by %v", d, diff)
		}
	}

	lo, hi := m.Layout().Band()
	for x := lo; x <= hi; x += 37.5 {
		if got := m.DateToX(m.XToDate(x)); math.Abs(got-x) > 1e-3 {
			t.Errorf("DateToX(XToDate(%v)) = %v", x, got)
		}
	}
}

func TestMapperMonotonic(t *testing.T) {
	m := testMapper(ZoomWeekly)
	prev := math.Inf(-1)
	for d := Date(2025, time.November, 1); d.Before(Date(2026, time.May, 1)); d = d.Add(12 * time.Hour) {
		x := m.DateToX(d)
		if x <= prev {
			t.Fatalf("DateToX not increasing at %v: %v <= %v", d, x, prev)
		}
		prev = x
	}
}

func TestMapperDoesNotClamp(t *testing.T) {
	m := testMapper(ZoomMonthly)
	lo, hi := m.Layout().Band()
	if x := m.DateToX(Date(2020, time.January, 1)); x >= lo {
		t.Errorf("date before window mapped to %v, want < %v", x, lo)
	}
	if x := m.DateToX(Date(2030, time.January, 1)); x <= hi {
		t.Errorf("date after window mapped to %v, want > %v", x, hi)
	}
}

func TestMapperZeroScale(t *testing.T) {
	m := NewMapper(LayoutFor(ZoomMonthly), Scale{MinDate: Date(2026, time.January, 1), MaxDate: Date(2026, time.January, 1)})
	if x := m.DateToX(Date(2026, time.June, 1)); math.IsNaN(x) || math.IsInf(x, 0) {
		t.Errorf("DateToX with zero scale = %v", x)
	}
	if d := m.XToDate(500); !d.Equal(Date(2026, time.January, 1)) {
		t.Errorf("XToDate with zero scale = %v", d)
	}
}

func TestMapperFarOffsetsSaturate(t *testing.T) {
	m := testMapper(ZoomMonthly)
	for _, x := range []float64{4e6, 1e9, 1e300, math.Inf(1)} {
		if d := m.XToDate(x); !d.After(m.Scale().MaxDate) {
			t.Errorf("XToDate(%v) = %v, want after %v", x, d, m.Scale().MaxDate)
		}
	}
	for _, x := range []float64{-4e6, -1e9, -1e300, math.Inf(-1)} {
		if d := m.XToDate(x); !d.Before(m.Scale().MinDate) {
			t.Errorf("XToDate(%v) = %v, want before %v", x, d, m.Scale().MinDate)
		}
	}
	if d := m.XToDate(math.NaN()); !d.Equal(m.Scale().MinDate) {
		t.Errorf("XToDate(NaN) = %v, want %v", d, m.Scale().MinDate)
	}
}
