package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	toggle     key.Binding
	next       key.Binding
	previous   key.Binding
	seekBack   key.Binding
	seekAhead  key.Binding
	volumeUp   key.Binding
	volumeDown key.Binding
	shuffle    key.Binding
	jump       key.Binding
	filter     key.Binding
	dismiss    key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		seekBack:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-10s")),
		seekAhead:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+10s")),
		volumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volumeDown: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "volume down")),
		shuffle:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		jump:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play selected")),
		filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter queue")),
		dismiss:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.previous, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.next, k.previous},
		{k.seekBack, k.seekAhead, k.volumeUp, k.volumeDown},
		{k.shuffle, k.jump, k.filter},
		{k.dismiss, k.help, k.quit},
	}
}
