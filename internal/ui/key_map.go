package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	search  key.Binding
	toggle  key.Binding
	focus   key.Binding
	merge   key.Binding
	login   key.Binding
	clear   key.Binding
	reset   key.Binding
	restart key.Binding
	quit    key.Binding
	abort   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		toggle:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "select")),
		focus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		merge:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "create playlist")),
		login:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "log in")),
		clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		reset:   key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "reset selection")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "back to search")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		abort:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle},
		{k.search, k.focus, k.clear},
		{k.merge, k.reset, k.restart, k.quit},
	}
}
