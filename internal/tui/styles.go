package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Primary   = lipgloss.Color("#4ECDC4")
	Danger    = lipgloss.Color("#FF6B6B")
	Warning   = lipgloss.Color("#FFE66D")
	Success   = lipgloss.Color("#95E1A3")
	Surface   = lipgloss.Color("#16213e")
	Text      = lipgloss.Color("#FFFFFF")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Today     = lipgloss.Color("#FF6B6B")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	NameStyle = lipgloss.NewStyle().
			Foreground(Text)

	NameSelectedStyle = lipgloss.NewStyle().
				Foreground(Text).
				Background(Surface).
				Bold(true)

	NameReadOnlyStyle = lipgloss.NewStyle().
				Foreground(TextMuted)

	AxisStyle = lipgloss.NewStyle().
			Foreground(TextMuted)

	GridStyle = lipgloss.NewStyle().
			Foreground(Border)

	TodayStyle = lipgloss.NewStyle().
			Foreground(Today).
			Bold(true)

	HoverStyle = lipgloss.NewStyle().
			Foreground(Warning)

	MilestoneStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	MarkerStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	MessageStyle = lipgloss.NewStyle().
			Foreground(Success)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Danger).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// barStyle colours a grant's bar with its palette colour
func barStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
