package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#E60026", "#04B575", "#FF5F5F", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	current lipgloss.Style
	cursor  lipgloss.Style
	match   lipgloss.Style
	lyric   lipgloss.Style
	dim     lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	pane    lipgloss.Style
}

// NewPalette builds the stylesheet from accent, ok, error, warning and muted colors.
func NewPalette(accent, ok, e, w, muted string) *Palette {
	return &Palette{
		title:   NewBold(accent).MarginBottom(1),
		current: NewBold(ok),
		cursor:  lipgloss.NewStyle().Reverse(true),
		match:   NewStyle(w).Underline(true),
		lyric:   NewBold(accent),
		dim:     NewStyle(muted),
		err:     NewBold(e),
		warn:    NewStyle(w),
		help:    NewEm(muted),
		pane:    lipgloss.NewStyle().PaddingRight(2),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
