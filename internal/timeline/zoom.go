package timeline

import (
	"fmt"
	"strings"
	"time"
)

// ZoomMode selects the timeline resolution
type ZoomMode int

const (
	ZoomWeekly ZoomMode = iota
	ZoomMonthly
	ZoomSixMonths
	ZoomYearly
)

// ZoomModes lists every mode from finest to coarsest
var ZoomModes = []ZoomMode{ZoomWeekly, ZoomMonthly, ZoomSixMonths, ZoomYearly}

// String returns the wire name of the mode
func (z ZoomMode) String() string {
	switch z {
	case ZoomWeekly:
		return "weekly"
	case ZoomMonthly:
		return "monthly"
	case ZoomSixMonths:
		return "6months"
	case ZoomYearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// ParseZoomMode converts a mode name into a ZoomMode
func ParseZoomMode(s string) (ZoomMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "week", "w":
		return ZoomWeekly, nil
	case "monthly", "month", "m":
		return ZoomMonthly, nil
	case "6months", "sixmonths", "6m":
		return ZoomSixMonths, nil
	case "yearly", "year", "y":
		return ZoomYearly, nil
	default:
		return ZoomMonthly, fmt.Errorf("unknown zoom mode %q (want weekly, monthly, 6months or yearly)", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (z ZoomMode) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (z *ZoomMode) UnmarshalText(b []byte) error {
	mode, err := ParseZoomMode(string(b))
	if err != nil {
		return err
	}
	*z = mode
	return nil
}

// SurfaceWidth is the pixel width of the drawing surface. Finer modes get a
// wider surface to keep label density readable.
func (z ZoomMode) SurfaceWidth() float64 {
	switch z {
	case ZoomWeekly:
		return 3000
	case ZoomMonthly:
		return 2400
	case ZoomSixMonths:
		return 1800
	default:
		return 1400
	}
}

// GridInterval is the distance between calendar gridlines
func (z ZoomMode) GridInterval() time.Duration {
	switch z {
	case ZoomWeekly:
		return 7 * day
	case ZoomYearly:
		return 90 * day
	default:
		return 30 * day
	}
}

// LabelLayout is the time layout of gridline labels
func (z ZoomMode) LabelLayout() string {
	switch z {
	case ZoomWeekly:
		return "Jan 2"
	case ZoomSixMonths:
		return "Jan"
	default:
		return "Jan 2006"
	}
}

// Padding is the blank margin around the drawable band, in pixels
type Padding struct {
	Left   float64 `yaml:"left" json:"left"`
	Right  float64 `yaml:"right" json:"right"`
	Top    float64 `yaml:"top" json:"top"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
}

// Layout constants shared by every zoom mode
const (
	RowHeight = 50
	RowGap    = 0
)

// DefaultPadding is the padding used by every zoom mode
var DefaultPadding = Padding{Left: 20, Right: 100, Top: 60, Bottom: 20}

// Layout describes the geometry of the drawing surface
type Layout struct {
	Width     float64
	Padding   Padding
	RowHeight float64
}

// LayoutFor returns the surface layout for a zoom mode
func LayoutFor(z ZoomMode) Layout {
	return Layout{
		Width:     z.SurfaceWidth(),
		Padding:   DefaultPadding,
		RowHeight: RowHeight + RowGap,
	}
}

// Height returns the surface height needed for rows items
func (l Layout) Height(rows int) float64 {
	return float64(rows)*l.RowHeight + l.Padding.Top + l.Padding.Bottom
}

// Band returns the horizontal pixel range dates inside the scale map onto
func (l Layout) Band() (float64, float64) {
	return l.Padding.Left, l.Width - l.Padding.Right
}

// RowY returns the top of row index
func (l Layout) RowY(index int) float64 {
	return l.Padding.Top + float64(index)*l.RowHeight
}
