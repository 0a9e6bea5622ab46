package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Hide     key.Binding
	Refresh  key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Left     key.Binding
	Right    key.Binding
	Sort     key.Binding
	Focus    key.Binding
	Help     key.Binding
	Close    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "esc", "ctrl+c"),
			key.WithHelp("Q", "Quit"),
		),
		Hide: key.NewBinding(
			key.WithKeys("h", "H"),
			key.WithHelp("H", "Hide/Show unavailable"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "R"),
			key.WithHelp("R", "Refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "Move selection up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "Move selection down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "Move selection up 10 rows"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "Move selection down 10 rows"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "Jump to the first row"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "Jump to the last row"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "Sort by the previous column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "Sort by the next column"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s", "S"),
			key.WithHelp("S", "Toggle ascending/descending order"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("Tab", "Switch between nodes and jobs"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Help"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "?"),
			key.WithHelp("Esc", "Close help"),
		),
	}
}

// footer lists the bindings shown on the bottom border.
func (k keyMap) footer() []key.Binding {
	return []key.Binding{k.Hide, k.Refresh, k.Quit, k.Help}
}

// all lists the bindings described on the help page.
func (k keyMap) all() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End,
		k.Focus, k.Left, k.Right, k.Sort,
		k.Hide, k.Refresh, k.Help, k.Quit,
	}
}
