package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the dashboard bindings.
type KeyMap struct {
	Quit        key.Binding
	Pause       key.Binding
	Clear       key.Binding
	ClearErrors key.Binding
	Up          key.Binding
	Down        key.Binding
	Logs        key.Binding
	Stats       key.Binding
	Help        key.Binding
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:        bind("q", "quit", "q", "ctrl+c"),
		Pause:       bind("p", "freeze quotes", "p"),
		Clear:       bind("c", "clear history", "c"),
		ClearErrors: bind("e", "clear errors", "e"),
		Up:          bind("↑/k", "older", "up", "k"),
		Down:        bind("↓/j", "newer", "down", "j"),
		Logs:        bind("l", "logs", "l"),
		Stats:       bind("s", "ledger stats", "s"),
		Help:        bind("?", "help", "?"),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Pause, k.Clear, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Pause, k.Clear, k.ClearErrors},
		{k.Up, k.Down, k.Logs, k.Stats, k.Help},
	}
}
