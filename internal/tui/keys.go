package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add      key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Note     key.Binding
	Unit     key.Binding
	Label    key.Binding
	QtyUp    key.Binding
	QtyDown  key.Binding
	Clear    key.Binding
	Lists    key.Binding
	Stats    key.Binding
	Transfer key.Binding
	Export   key.Binding
	Logout   key.Binding
	Tab1     key.Binding
	Tab2     key.Binding
	Tab      key.Binding
	Help     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Add: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "add"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "check/uncheck"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Note: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "note"),
	),
	Unit: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unit"),
	),
	Label: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "category"),
	),
	QtyUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "more"),
	),
	QtyDown: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "fewer"),
	),
	Clear: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear checked"),
	),
	Lists: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "lists"),
	),
	Stats: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stats"),
	),
	Transfer: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "ingredients"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Logout: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "logout"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "meal plan"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "shopping"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Label, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Toggle, k.Delete, k.Note},
		{k.Label, k.QtyUp, k.QtyDown, k.Clear},
		{k.Lists, k.Stats, k.Transfer, k.Export},
		{k.Tab1, k.Tab2, k.Up, k.Down},
		{k.Enter, k.Back, k.Logout, k.Quit},
	}
}
