package timeline

import "time"

// Mapper converts between calendar dates and horizontal pixel offsets on
// the drawing surface. Values outside the scale are not clamped.
type Mapper struct {
	layout Layout
	scale  Scale
}

// NewMapper creates a mapper for one layout and scale
func NewMapper(layout Layout, scale Scale) Mapper {
	return Mapper{layout: layout, scale: scale}
}

// Layout returns the surface layout
func (m Mapper) Layout() Layout {
	return m.layout
}

// Scale returns the date window
func (m Mapper) Scale() Scale {
	return m.scale
}

func (m Mapper) available() float64 {
	return m.layout.Width - m.layout.Padding.Left - m.layout.Padding.Right
}

// DateToX maps a date onto the surface
func (m Mapper) DateToX(t time.Time) float64 {
	if m.scale.TotalDays == 0 {
		return m.layout.Padding.Left
	}
	ratio := Days(t.Sub(m.scale.MinDate)) / m.scale.TotalDays
	return m.layout.Padding.Left + ratio*m.available()
}

// XToDate maps a surface offset back onto a date
func (m Mapper) XToDate(x float64) time.Time {
	avail := m.available()
	if avail == 0 {
		return m.scale.MinDate
	}
	days := (x - m.layout.Padding.Left) / avail * m.scale.TotalDays
	return m.scale.MinDate.Add(DaysToDuration(days))
}
