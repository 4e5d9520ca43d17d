package timeline

import "testing"

func TestPaletteAssignsInFirstSeenOrder(t *testing.T) {
	p := NewPalette(false)
	if got := p.ColorFor("a"); got != "hsl(0, 65%, 50%)" {
		t.Errorf("first colour = %q", got)
	}
	if got := p.ColorFor("b"); got != "hsl(30, 65%, 50%)" {
		t.Errorf("second colour = %q", got)
	}
	if got := p.ColorFor("a"); got != "hsl(0, 65%, 50%)" {
		t.Errorf("repeat lookup changed colour: %q", got)
	}
}

func TestPaletteDarkAndWrap(t *testing.T) {
	p := NewPalette(true)
	ids := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	var colours []string
	for _, id := range ids {
		colours = append(colours, p.ColorFor(id))
	}
	if colours[0] != "hsl(0, 70%, 55%)" {
		t.Errorf("dark colour = %q", colours[0])
	}
	if colours[10] != colours[0] {
		t.Errorf("11th colour %q should wrap to %q", colours[10], colours[0])
	}
}

func TestPaletteVariant(t *testing.T) {
	p := NewPalette(false)
	p.ColorFor("a")

	tests := []struct {
		adjust int
		want   string
	}{
		{10, "hsl(0, 65%, 60%)"},
		{-20, "hsl(0, 65%, 30%)"},
		{80, "hsl(0, 65%, 100%)"},
		{-90, "hsl(0, 65%, 0%)"},
	}
	for _, tt := range tests {
		if got := p.Variant("a", tt.adjust); got != tt.want {
			t.Errorf("Variant(%d) = %q, want %q", tt.adjust, got, tt.want)
		}
	}
	if got := p.Variant("missing", 10); got != "" {
		t.Errorf("Variant of unknown id = %q", got)
	}
}

func TestPaletteRemoveAndReset(t *testing.T) {
	p := NewPalette(false)
	p.ColorFor("a")
	p.ColorFor("b")
	p.Remove("a")
	if got := p.ColorFor("a"); got != "hsl(60, 65%, 50%)" {
		t.Errorf("re-added id got %q, want next hue", got)
	}

	p.Reset()
	if got := p.ColorFor("z"); got != "hsl(0, 65%, 50%)" {
		t.Errorf("after reset got %q", got)
	}
}
