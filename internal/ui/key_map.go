package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	top       key.Binding
	bottom    key.Binding
	enter     key.Binding
	toggle    key.Binding
	prev      key.Binding
	next      key.Binding
	cycleMode key.Binding
	shuffle   key.Binding
	search    key.Binding
	nextMatch key.Binding
	prevMatch key.Binding
	current   key.Binding
	pane      key.Binding
	volUp     key.Binding
	volDown   key.Binding
	mute      key.Binding
	seekBack  key.Binding
	seekFwd   key.Binding
	command   key.Binding
	help      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		top:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		bottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		toggle:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		prev:      key.NewBinding(key.WithKeys(","), key.WithHelp(",", "prev")),
		next:      key.NewBinding(key.WithKeys("."), key.WithHelp(".", "next")),
		cycleMode: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "mode")),
		shuffle:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		nextMatch: key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "next/prev match")),
		prevMatch: key.NewBinding(key.WithKeys("N")),
		current:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "current")),
		pane:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "lyrics")),
		volUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "volume")),
		volDown:   key.NewBinding(key.WithKeys("-")),
		mute:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		seekBack:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "seek")),
		seekFwd:   key.NewBinding(key.WithKeys("right", "l")),
		command:   key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.toggle, k.search, k.pane, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.top, k.bottom, k.enter},
		{k.toggle, k.prev, k.next, k.seekBack, k.volUp, k.mute},
		{k.cycleMode, k.shuffle, k.search, k.nextMatch, k.current},
		{k.pane, k.command, k.help, k.quit},
	}
}
