package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/desertthunder/ncmx/internal/formatter"
	"github.com/desertthunder/ncmx/internal/playback"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 7 // header, bar, status, input/help and spacing
)

// View renders the two panes, the playback bar and the input or help line.
func (m *Model) View() string {
	width, height := m.size()
	listHeight := max(height-chromeHeight, 3)

	left := width / 2
	right := width - left - 2
	if m.snap.Lyrics.Len() == 0 && m.focus == TracksPane {
		left, right = width, 0
	}

	panes := styles.pane.Render(m.renderTracks(left, listHeight))
	if right > 0 {
		panes = lipgloss.JoinHorizontal(lipgloss.Top, panes, m.renderLyrics(right, listHeight))
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n")
	b.WriteString(panes)
	b.WriteString("\n\n")
	b.WriteString(m.renderBar(width))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(width))
	b.WriteString("\n")
	if m.inputMode != NoInput {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func (m *Model) renderHeader(width int) string {
	name := "No playlist"
	if m.playlist != nil {
		name = fmt.Sprintf("%s (%d tracks)", m.playlist.Name(), m.playlist.Len())
	}
	return styles.title.Render(truncate("ncmx · "+name, width))
}

func (m *Model) renderTracks(width, height int) string {
	n := m.playlist.Len()
	if n == 0 {
		return styles.dim.Render("empty playlist")
	}

	matches := make(map[int]bool, len(m.snap.SearchMatches))
	for _, i := range m.snap.SearchMatches {
		matches[i] = true
	}

	start, end := window(m.cursor, n, height)
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		t, _ := m.playlist.Track(i)

		marker := "  "
		if i == m.snap.Index {
			marker = "▶ "
		}
		row := truncate(fmt.Sprintf("%s%3d. %s - %s", marker, i+1, t.Title, t.Artist()), width)

		switch {
		case i == m.cursor && m.focus == TracksPane:
			row = styles.cursor.Render(row)
		case i == m.snap.Index:
			row = styles.current.Render(row)
		case matches[i]:
			row = styles.match.Render(row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderLyrics(width, height int) string {
	tl := m.snap.Lyrics
	n := tl.Len()
	if n == 0 {
		return styles.dim.Render("no lyrics")
	}

	center := m.snap.LyricIndex
	if m.focus == LyricsPane {
		center = m.lyricCursor
	}
	start, end := window(max(center, 0), n, height)

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line, _ := tl.Line(i)
		text := line.Text
		if line.Translation != "" {
			text = fmt.Sprintf("%s  %s", text, line.Translation)
		}
		row := truncate(text, width)

		switch {
		case m.focus == LyricsPane && i == m.lyricCursor:
			row = styles.cursor.Render(row)
		case i == m.snap.LyricIndex:
			row = styles.lyric.Render(row)
		default:
			row = styles.dim.Render(row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderBar(width int) string {
	s := m.snap

	icon := "■"
	switch s.Status {
	case playback.Playing:
		icon = "▶"
	case playback.Paused:
		icon = "⏸"
	case playback.Transitioning:
		icon = "…"
	}

	volume := fmt.Sprintf("vol %d%%", s.Volume)
	if s.Muted {
		volume = "muted"
	}
	right := fmt.Sprintf("%s  %s  %s", formatter.FormatProgress(s.Position, s.Duration), s.Mode, volume)

	title := "nothing playing"
	if s.HasTrack() {
		title = fmt.Sprintf("%s - %s", s.CurrentTrack.Title, s.CurrentTrack.Artist())
	}
	avail := max(width-runewidth.StringWidth(right)-4, 1)
	left := fmt.Sprintf("%s %s", icon, truncate(title, avail))

	gap := max(width-runewidth.StringWidth(left)-runewidth.StringWidth(right), 1)
	return left + strings.Repeat(" ", gap) + styles.dim.Render(right)
}

func (m *Model) renderStatus(width int) string {
	if m.err != nil {
		return styles.err.Render(truncate("error: "+m.err.Error(), width))
	}
	if m.status != "" {
		return styles.warn.Render(truncate(m.status, width))
	}
	return ""
}

// window returns the [start, end) range of height rows that keeps cursor visible and roughly centered.
func window(cursor, n, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := min(max(cursor-height/2, 0), n-height)
	return start, start + height
}

// truncate shortens s to fit width terminal cells, accounting for wide characters.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
