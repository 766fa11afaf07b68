package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/playback"
	"github.com/desertthunder/ncmx/internal/player"
	"github.com/desertthunder/ncmx/internal/shared"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 5
)

// Player is the part of [player.Coordinator] the TUI drives.
type Player interface {
	Snapshot() player.Snapshot
	Updates() <-chan struct{}
	Do(ctx context.Context, cmd player.Command) error
}

// Pane is the focused half of the screen.
type Pane int

const (
	TracksPane Pane = iota
	LyricsPane
)

// InputMode tells what the bottom input line is editing.
type InputMode int

const (
	NoInput InputMode = iota
	SearchInput
	CommandInput
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	player   Player
	playlist *models.Playlist
	snap     player.Snapshot

	focus       Pane
	cursor      int
	lyricCursor int
	inputMode   InputMode
	input       textinput.Model
	lastMode    playback.Mode
	status      string
	err         error

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a TUI over p showing pl.
func NewModel(ctx context.Context, p Player, pl *models.Playlist) *Model {
	input := textinput.New()
	input.CharLimit = 128

	return &Model{
		ctx:      ctx,
		player:   p,
		playlist: pl,
		snap:     p.Snapshot(),
		input:    input,
		lastMode: playback.ListRepeat,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init subscribes to player updates.
func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.inputMode != NoInput {
			return m.handleInputKeys(msg)
		}
		if m.focus == LyricsPane {
			if cmd, ok := m.handleLyricKeys(msg); ok {
				return m, cmd
			}
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshot:
		m.apply(msg.data.(player.Snapshot))
		return m, m.waitForUpdate()
	case MsgQueryApplied:
		m.apply(msg.data.(player.Snapshot))
		if m.snap.Query == "" {
			m.status = ""
			return m, nil
		}
		if i, ok := m.snap.NextMatch(m.cursor - 1); ok {
			m.cursor = i
		}
		m.status = m.matchStatus()
		return m, nil
	case MsgCommandFailed:
		m.err = msg.data.(error)
		return m, nil
	case MsgPlayerClosed:
		return m, tea.Quit
	}
	return m, nil
}

// apply records a new snapshot and keeps cursors in range.
func (m *Model) apply(s player.Snapshot) {
	if s.LastError != m.snap.LastError {
		m.err = s.LastError
	}
	m.snap = s
	if s.Playlist != nil {
		m.playlist = s.Playlist
	}
	m.cursor = clamp(m.cursor, m.playlist.Len())
	m.lyricCursor = clamp(m.lyricCursor, s.Lyrics.Len())
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.playlist.Len()
	s := m.snap

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.up):
		m.cursor = clamp(m.cursor-1, n)
	case key.Matches(msg, m.keys.down):
		m.cursor = clamp(m.cursor+1, n)
	case key.Matches(msg, m.keys.top):
		m.cursor = 0
	case key.Matches(msg, m.keys.bottom):
		m.cursor = clamp(n-1, n)
	case key.Matches(msg, m.keys.enter):
		if n == 0 {
			return m, nil
		}
		m.err = nil
		return m, m.do(player.LoadAndPlay(m.playlist, m.cursor))
	case key.Matches(msg, m.keys.toggle):
		return m, m.do(player.TogglePlay())
	case key.Matches(msg, m.keys.prev):
		return m, m.do(player.Prev())
	case key.Matches(msg, m.keys.next):
		return m, m.do(player.Next())
	case key.Matches(msg, m.keys.cycleMode):
		return m, m.do(player.CycleMode())
	case key.Matches(msg, m.keys.shuffle):
		if s.Mode == playback.Shuffle {
			return m, m.do(player.SetMode(m.lastMode))
		}
		m.lastMode = s.Mode
		return m, m.do(player.SetMode(playback.Shuffle))
	case key.Matches(msg, m.keys.search):
		return m, m.openInput(SearchInput, "/", s.Query)
	case key.Matches(msg, m.keys.command):
		return m, m.openInput(CommandInput, ":", "")
	case key.Matches(msg, m.keys.nextMatch):
		if i, ok := s.NextMatch(m.cursor); ok {
			m.cursor = i
			m.status = m.matchStatus()
		}
	case key.Matches(msg, m.keys.prevMatch):
		if i, ok := s.PrevMatch(m.cursor); ok {
			m.cursor = i
			m.status = m.matchStatus()
		}
	case key.Matches(msg, m.keys.current):
		if s.HasTrack() {
			m.cursor = s.Index
		}
	case key.Matches(msg, m.keys.pane):
		m.focus = LyricsPane
		m.lyricCursor = max(s.LyricIndex, 0)
	case key.Matches(msg, m.keys.volUp):
		return m, m.do(player.AdjustVolume(volumeStep))
	case key.Matches(msg, m.keys.volDown):
		return m, m.do(player.AdjustVolume(-volumeStep))
	case key.Matches(msg, m.keys.mute):
		return m, m.do(player.ToggleMute())
	case key.Matches(msg, m.keys.seekBack):
		return m, m.do(player.SeekRelative(-seekStep))
	case key.Matches(msg, m.keys.seekFwd):
		return m, m.do(player.SeekRelative(seekStep))
	}
	return m, nil
}

// handleLyricKeys handles keys that mean something else in the lyrics pane.
// Keys it does not claim fall through to the global bindings.
func (m *Model) handleLyricKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	n := m.snap.Lyrics.Len()
	switch {
	case key.Matches(msg, m.keys.pane):
		m.focus = TracksPane
	case key.Matches(msg, m.keys.up):
		m.lyricCursor = clamp(m.lyricCursor-1, n)
	case key.Matches(msg, m.keys.down):
		m.lyricCursor = clamp(m.lyricCursor+1, n)
	case key.Matches(msg, m.keys.top):
		m.lyricCursor = 0
	case key.Matches(msg, m.keys.bottom):
		m.lyricCursor = clamp(n-1, n)
	case key.Matches(msg, m.keys.current):
		m.lyricCursor = max(m.snap.LyricIndex, 0)
	case key.Matches(msg, m.keys.enter):
		if n == 0 {
			return nil, true
		}
		return m.do(player.SeekToLyric(m.lyricCursor)), true
	default:
		return nil, false
	}
	return nil, true
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		mode := m.inputMode
		m.closeInput()
		if mode == SearchInput && m.snap.Query != "" {
			return m, m.setQuery("")
		}
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.inputMode
		m.closeInput()
		if mode == SearchInput {
			return m, m.setQuery(value)
		}
		return m.runCommandLine(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runCommandLine executes a ":" command. Anything other than quit goes through [player.ParseCommand].
func (m *Model) runCommandLine(line string) (tea.Model, tea.Cmd) {
	if line == "" {
		return m, nil
	}
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case "q", "quit":
		return m, tea.Quit
	}

	cmd, err := player.ParseCommand(name, arg)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	return m, m.do(cmd)
}

func (m *Model) openInput(mode InputMode, prompt, value string) tea.Cmd {
	m.inputMode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.inputMode = NoInput
	m.input.Blur()
	m.input.SetValue("")
}

// do sends cmd to the player off the update loop and reports a failure as a message.
func (m *Model) do(cmd player.Command) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.Do(m.ctx, cmd); err != nil {
			if errors.Is(err, shared.ErrClosed) {
				return playerClosedMsg()
			}
			return commandFailedMsg(err)
		}
		return nil
	}
}

func (m *Model) setQuery(q string) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.Do(m.ctx, player.SetQuery(q)); err != nil {
			return commandFailedMsg(err)
		}
		return queryAppliedMsg(m.player.Snapshot())
	}
}

// waitForUpdate blocks until the player commits new state.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return playerClosedMsg()
		case <-m.player.Updates():
			return snapshotMsg(m.player.Snapshot())
		}
	}
}

func (m *Model) matchStatus() string {
	total := len(m.snap.SearchMatches)
	if total == 0 {
		return fmt.Sprintf("no matches for %q", m.snap.Query)
	}
	k := 0
	for i, idx := range m.snap.SearchMatches {
		if idx == m.cursor {
			k = i + 1
			break
		}
	}
	return fmt.Sprintf("/%s [%d/%d]", m.snap.Query, k, total)
}

// clamp bounds i to [0, n), or 0 when n is 0.
func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
