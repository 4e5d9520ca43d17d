package timeline

import (
	"fmt"
	"regexp"
	"strconv"
)

// paletteHues are cycled in order as new grants are seen
var paletteHues = []int{0, 30, 60, 120, 180, 210, 240, 270, 300, 330}

var hslPattern = regexp.MustCompile(`^hsl\((\d+),\s*(\d+)%,\s*(\d+)%\)$`)

// Palette assigns distinct colours to grants. It is an explicit value owned
// by whoever renders, not shared process state. A Palette is not safe for
// concurrent use.
type Palette struct {
	Dark bool

	next     int
	assigned map[string]string
}

// NewPalette creates an empty palette
func NewPalette(dark bool) *Palette {
	return &Palette{Dark: dark, assigned: make(map[string]string)}
}

// ColorFor returns the colour of a grant, assigning the next hue the first
// time the id is seen
func (p *Palette) ColorFor(id string) string {
	if p.assigned == nil {
		p.assigned = make(map[string]string)
	}
	if c, ok := p.assigned[id]; ok {
		return c
	}

	hue := paletteHues[p.next%len(paletteHues)]
	p.next++

	saturation, lightness := 65, 50
	if p.Dark {
		saturation, lightness = 70, 55
	}
	c := fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, saturation, lightness)
	p.assigned[id] = c
	return c
}

// Variant returns the grant's colour with lightness shifted by adjust,
// clamped to [0, 100]. Unknown ids return "".
func (p *Palette) Variant(id string, adjust int) string {
	base, ok := p.assigned[id]
	if !ok {
		return ""
	}
	m := hslPattern.FindStringSubmatch(base)
	if m == nil {
		return base
	}
	l, _ := strconv.Atoi(m[3])
	l += adjust
	if l < 0 {
		l = 0
	}
	if l > 100 {
		l = 100
	}
	return fmt.Sprintf("hsl(%s, %s%%, %d%%)", m[1], m[2], l)
}

// Remove forgets a grant's colour
func (p *Palette) Remove(id string) {
	delete(p.assigned, id)
}

// Reset forgets every assignment and restarts the hue cycle
func (p *Palette) Reset() {
	p.next = 0
	p.assigned = make(map[string]string)
}
