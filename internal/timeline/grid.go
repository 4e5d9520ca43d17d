package timeline

import "time"

// GridLine is one vertical calendar line with its label
type GridLine struct {
	Date  time.Time
	Label string
}

// GenerateGrid lays out calendar gridlines from the start of the window at
// the mode's interval. Lines continue until one reaches the end of the
// window, so the whole window is covered.
func GenerateGrid(scale Scale, mode ZoomMode) []GridLine {
	interval := mode.GridInterval()
	layout := mode.LabelLayout()

	lines := []GridLine{{Date: scale.MinDate, Label: scale.MinDate.UTC().Format(layout)}}
	span := scale.Span()
	if span <= 0 {
		return lines
	}

	for offset := interval; ; offset += interval {
		d := scale.MinDate.Add(offset)
		lines = append(lines, GridLine{Date: d, Label: d.UTC().Format(layout)})
		if offset >= span {
			break
		}
	}
	return lines
}
