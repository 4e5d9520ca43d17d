package timeline

// Style controls colours and fonts of the rendered surface. It maps
// directly onto the `theme` section of the YAML configuration.
type Style struct {
	FontFamily    string  `yaml:"font_family" json:"font_family"`
	FontSize      float64 `yaml:"font_size" json:"font_size"`
	Background    string  `yaml:"background" json:"background"`
	Text          string  `yaml:"text" json:"text"`
	MutedText     string  `yaml:"muted_text" json:"muted_text"`
	Grid          string  `yaml:"grid" json:"grid"`
	Today         string  `yaml:"today" json:"today"`
	Border        string  `yaml:"border" json:"border"`
	MilestoneFill string  `yaml:"milestone_fill" json:"milestone_fill"`
	Marker        string  `yaml:"marker" json:"marker"`
	MarkerStroke  string  `yaml:"marker_stroke" json:"marker_stroke"`
	FallbackColor string  `yaml:"fallback_color" json:"fallback_color"`
	NameColumn    float64 `yaml:"name_column" json:"name_column"`
}

// DefaultStyle returns the light theme
func DefaultStyle() Style {
	return Style{
		FontFamily:    "Arial, sans-serif",
		FontSize:      12,
		Background:    "#ffffff",
		Text:          "#333333",
		MutedText:     "#666666",
		Grid:          "#e0e0e0",
		Today:         "#ff6b6b",
		Border:        "#333333",
		MilestoneFill: "#ffffff",
		Marker:        "#ffffff",
		MarkerStroke:  "#333333",
		FallbackColor: "#4285f4",
		NameColumn:    250,
	}
}

// DarkStyle returns the dark theme
func DarkStyle() Style {
	s := DefaultStyle()
	s.Background = "#1a1a2e"
	s.Text = "#ffffff"
	s.MutedText = "#888888"
	s.Grid = "#333333"
	s.Border = "#888888"
	s.MilestoneFill = "#16213e"
	s.Marker = "#16213e"
	s.MarkerStroke = "#ffffff"
	return s
}

// withDefaults fills unset colours and fonts from the light theme. A zero
// NameColumn stays zero: the surface is drawn without a name column.
func (s Style) withDefaults() Style {
	column := s.NameColumn
	s = s.Over(DefaultStyle())
	s.NameColumn = column
	return s
}

// Over returns s with every unset field taken from base
func (s Style) Over(base Style) Style {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	s.FontFamily = pick(s.FontFamily, base.FontFamily)
	s.Background = pick(s.Background, base.Background)
	s.Text = pick(s.Text, base.Text)
	s.MutedText = pick(s.MutedText, base.MutedText)
	s.Grid = pick(s.Grid, base.Grid)
	s.Today = pick(s.Today, base.Today)
	s.Border = pick(s.Border, base.Border)
	s.MilestoneFill = pick(s.MilestoneFill, base.MilestoneFill)
	s.Marker = pick(s.Marker, base.Marker)
	s.MarkerStroke = pick(s.MarkerStroke, base.MarkerStroke)
	s.FallbackColor = pick(s.FallbackColor, base.FallbackColor)
	if s.FontSize == 0 {
		s.FontSize = base.FontSize
	}
	if s.NameColumn == 0 {
		s.NameColumn = base.NameColumn
	}
	return s
}
