package timeline

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// SVG renders the frame as a standalone SVG document. When the style has a
// name column the surface is shifted right and grant names are listed in
// the column; surface coordinates are unchanged inside the shifted group.
func (f *Frame) SVG() string {
	var svg strings.Builder
	f.WriteSVG(&svg)
	return svg.String()
}

// WriteSVG writes the SVG document to w
func (f *Frame) WriteSVG(w io.Writer) error {
	var svg strings.Builder
	style := f.Style
	column := style.NameColumn
	total := f.Width + column

	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" xmlns="http://www.w3.org/2000/svg" class="timeline-svg" data-zoom="%s">
<rect width="100%%" height="100%%" fill="%s"/>
<defs>
<style>
text { font-family: %s; font-size: %spx; }
.calendar-label { font-size: %spx; }
.today-label, .milestone-label, .grant-name-text { font-weight: bold; }
.progress-marker-draggable { cursor: ew-resize; }
</style>
</defs>
`, num(total), num(f.Height), f.Mode, style.Background,
		escapeXML(style.FontFamily), num(style.FontSize), num(style.FontSize-1)))

	if column > 0 {
		svg.WriteString(`<g class="grant-names-column">`)
		layout := f.Mapper.Layout()
		for _, row := range f.Rows {
			svg.WriteString(fmt.Sprintf(`<text x="%s" y="%s" class="grant-name-text" fill="%s" dominant-baseline="middle">%s</text>`,
				num(10), num(row.Y+layout.RowHeight/2), style.Text, escapeXML(truncate(row.Name, int(column/(style.FontSize*0.6))-2))))
		}
		svg.WriteString("</g>\n")
		svg.WriteString(fmt.Sprintf(`<g class="timeline-surface" transform="translate(%s,0)">`, num(column)))
		svg.WriteString("\n")
	}

	for _, n := range f.Nodes {
		writeNode(&svg, n)
	}

	if column > 0 {
		svg.WriteString("</g>\n")
	}
	svg.WriteString("</svg>\n")

	_, err := io.WriteString(w, svg.String())
	return err
}

func writeNode(svg *strings.Builder, n Node) {
	switch n.Kind {
	case NodeGroup:
		svg.WriteString("<g")
		writeAttr(svg, "class", n.Class)
		writeAttr(svg, "data-item-id", n.ItemID)
		svg.WriteString(">")
		if n.Title != "" {
			svg.WriteString("<title>" + escapeXML(n.Title) + "</title>")
		}
		for _, c := range n.Children {
			writeNode(svg, c)
		}
		svg.WriteString("</g>\n")
		return

	case NodeRect:
		svg.WriteString(fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s"`,
			num(n.X), num(n.Y), num(n.Width), num(n.Height)))

	case NodeLine:
		svg.WriteString(fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s"`,
			num(n.X1), num(n.Y1), num(n.X2), num(n.Y2)))

	case NodeCircle:
		svg.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s"`, num(n.CX), num(n.CY), num(n.R)))

	case NodePolygon:
		pts := make([]string, len(n.Points))
		for i, p := range n.Points {
			pts[i] = num(p.X) + "," + num(p.Y)
		}
		svg.WriteString(fmt.Sprintf(`<polygon points="%s"`, strings.Join(pts, " ")))

	case NodeText:
		svg.WriteString(fmt.Sprintf(`<text x="%s" y="%s"`, num(n.X), num(n.Y)))
		writeAttr(svg, "text-anchor", n.Anchor)
		writeAttr(svg, "dominant-baseline", n.Baseline)
	}

	writeAttr(svg, "class", n.Class)
	writeAttr(svg, "fill", n.Fill)
	writeAttr(svg, "stroke", n.Stroke)
	if n.StrokeWidth > 0 {
		writeAttr(svg, "stroke-width", num(n.StrokeWidth))
	}
	writeAttr(svg, "stroke-dasharray", n.Dash)
	if n.Opacity > 0 {
		writeAttr(svg, "opacity", num(n.Opacity))
	}
	writeAttr(svg, "data-item-id", n.ItemID)
	if n.Cursor != "" {
		writeAttr(svg, "style", "cursor: "+n.Cursor+"; pointer-events: all")
	}

	if n.Kind == NodeText {
		svg.WriteString(">" + escapeXML(n.Text) + "</text>\n")
		return
	}
	svg.WriteString("/>\n")
}

func writeAttr(svg *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	svg.WriteString(" " + name + `="` + escapeXML(value) + `"`)
}

// num formats a coordinate with at most two decimals
func num(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

// escapeXML escapes the XML special characters so text and attribute
// values cannot break the document
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// truncate shortens a string to max runes with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
