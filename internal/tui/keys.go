package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Today     key.Binding
	Weekly    key.Binding
	Monthly   key.Binding
	SixMonths key.Binding
	Yearly    key.Binding
	Earlier   key.Binding
	Later     key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous grant")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next grant")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "scroll back")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "scroll forward")),
	Today:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "jump to today")),
	Weekly:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "weekly")),
	Monthly:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "monthly")),
	SixMonths: key.NewBinding(key.WithKeys("6"), key.WithHelp("6", "six months")),
	Yearly:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yearly")),
	Earlier:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "progress -1 day")),
	Later:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "progress +1 day")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Confirm:   key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
	Cancel:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", "cancel")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Monthly, k.Delete, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Today},
		{k.Weekly, k.Monthly, k.SixMonths, k.Yearly},
		{k.Earlier, k.Later, k.Edit, k.Delete},
		{k.Help, k.Quit},
	}
}
