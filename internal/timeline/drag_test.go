package timeline

import (
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
)

type fakeSource struct {
	items  map[string]model.Grant
	mapper Mapper
}

func (s *fakeSource) Item(id string) (model.Grant, bool) {
	g, ok := s.items[id]
	return g, ok
}

func (s *fakeSource) Mapper() Mapper { return s.mapper }

type recordingSink struct {
	updates []ProgressUpdate
}

func (s *recordingSink) SetProgress(u ProgressUpdate) { s.updates = append(s.updates, u) }

func newDragFixture(viewer string) (*Controller, *fakeSource, *recordingSink) {
	g := grant("g1", Date(2026, time.January, 1), Date(2026, time.March, 1))
	g.AssignedUsers = []string{"alice"}
	items := map[string]model.Grant{"g1": g}

	list := []model.Grant{g}
	src := &fakeSource{
		items:  items,
		mapper: NewMapper(LayoutFor(ZoomMonthly), CalculateScale(list, ZoomMonthly, testNow)),
	}
	sink := &recordingSink{}
	return NewController(viewer, src, sink), src, sink
}

func TestControllerDragClampsToSpan(t *testing.T) {
	c, src, sink := newDragFixture("alice")

	if !c.PointerDown("g1") {
		t.Fatal("PointerDown refused an assigned viewer")
	}
	if c.State() != StateDragging {
		t.Fatalf("state = %v, want dragging", c.State())
	}

	lo, hi := src.mapper.Layout().Band()
	mid := src.mapper.DateToX(Date(2026, time.January, 20).Add(13 * time.Hour))

	tests := []struct {
		x    float64
		want time.Time
	}{
		{lo - 500, Date(2026, time.January, 1)},
		{hi + 500, Date(2026, time.March, 1)},
		{mid, Date(2026, time.January, 20)},
	}
	for _, tt := range tests {
		u := c.PointerMove(tt.x, false)
		if u == nil {
			t.Fatalf("no update for x=%v", tt.x)
		}
		if u.ItemID != "g1" || !u.Date.Equal(tt.want) {
			t.Errorf("PointerMove(%v) = %v %v, want %v", tt.x, u.ItemID, u.Date, tt.want)
		}
	}
	if len(sink.updates) != len(tests) {
		t.Errorf("sink received %d updates, want one per move", len(sink.updates))
	}

	c.PointerUp()
	if c.State() != StateIdle || c.Drag().Dragging {
		t.Errorf("state after up = %v", c.State())
	}
	if u := c.PointerMove(mid, false); u != nil {
		t.Error("update emitted after drag ended")
	}
}

func TestControllerDragFarOffSurface(t *testing.T) {
	c, _, _ := newDragFixture("alice")
	c.PointerDown("g1")

	tests := []struct {
		x    float64
		want time.Time
	}{
		{4e6, Date(2026, time.March, 1)},
		{-4e6, Date(2026, time.January, 1)},
		{1e9, Date(2026, time.March, 1)},
		{-1e9, Date(2026, time.January, 1)},
	}
	for _, tt := range tests {
		u := c.PointerMove(tt.x, false)
		if u == nil || !u.Date.Equal(tt.want) {
			t.Errorf("PointerMove(%v) = %v, want %v", tt.x, u, tt.want)
		}
	}
}

func TestControllerRefusesReadOnly(t *testing.T) {
	for _, viewer := range []string{"bob", ""} {
		c, _, sink := newDragFixture(viewer)
		if c.PointerDown("g1") {
			t.Errorf("viewer %q started a drag on an unassigned grant", viewer)
		}
		c.PointerMove(100, true)
		if len(sink.updates) != 0 {
			t.Errorf("viewer %q produced updates", viewer)
		}
	}

	c, _, _ := newDragFixture("alice")
	if c.PointerDown("missing") {
		t.Error("drag started on unknown grant")
	}
}

func TestControllerInvertedSpanCollapsesToStart(t *testing.T) {
	c, src, _ := newDragFixture("alice")
	g := src.items["g1"]
	g.StartDate, g.EndDate = Date(2026, time.February, 1), Date(2026, time.January, 10)
	src.items["g1"] = g

	c.PointerDown("g1")
	lo, hi := src.mapper.Layout().Band()
	for _, x := range []float64{lo, (lo + hi) / 2, hi} {
		if u := c.PointerMove(x, true); u == nil || !u.Date.Equal(g.StartDate) {
			t.Errorf("PointerMove(%v) = %v, want start", x, u)
		}
	}
}

func TestControllerAbortsWhenItemVanishes(t *testing.T) {
	c, src, sink := newDragFixture("alice")
	c.PointerDown("g1")
	delete(src.items, "g1")

	if u := c.PointerMove(300, true); u != nil {
		t.Errorf("update for vanished grant: %v", u)
	}
	if c.State() != StateIdle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if len(sink.updates) != 0 {
		t.Error("sink called for vanished grant")
	}
}

func TestControllerHover(t *testing.T) {
	c, src, _ := newDragFixture("alice")

	c.PointerMove(400, false)
	if c.HoverDate() != nil {
		t.Error("hover set while off the surface")
	}

	c.PointerMove(400, true)
	h := c.HoverDate()
	if h == nil || c.State() != StateHovering {
		t.Fatalf("hover = %v state = %v", h, c.State())
	}
	if !h.Equal(src.mapper.XToDate(400)) {
		t.Errorf("hover date = %v", h)
	}

	c.PointerDown("g1")
	if c.HoverDate() != nil {
		t.Error("hover reported while dragging")
	}

	c.PointerLeave()
	if c.State() != StateDragging {
		t.Error("leaving the surface ended the drag")
	}
	c.PointerUp()

	c.PointerMove(400, true)
	c.PointerLeave()
	if c.HoverDate() != nil || c.State() != StateIdle {
		t.Errorf("leave did not clear hover: %v", c.State())
	}
}

func TestControllerUsesCurrentMapper(t *testing.T) {
	c, src, _ := newDragFixture("alice")
	c.PointerDown("g1")

	x := 900.0
	first := c.PointerMove(x, true)

	g := src.items["g1"]
	src.mapper = NewMapper(LayoutFor(ZoomWeekly), CalculateScale([]model.Grant{g}, ZoomWeekly, testNow))
	second := c.PointerMove(x, true)

	if first.Date.Equal(second.Date) {
		t.Errorf("zoom change not picked up: both moves gave %v", first.Date)
	}
}
