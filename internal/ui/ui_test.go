package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/playback"
	"github.com/desertthunder/ncmx/internal/player"
	"github.com/desertthunder/ncmx/internal/shared"
)

type fakePlayer struct {
	mu      sync.Mutex
	snap    player.Snapshot
	cmds    []player.Command
	err     error
	updates chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		snap:    player.Snapshot{Index: -1, LyricIndex: -1, Volume: 50},
		updates: make(chan struct{}, 1),
	}
}

func (f *fakePlayer) Snapshot() player.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakePlayer) Updates() <-chan struct{} { return f.updates }

func (f *fakePlayer) Do(_ context.Context, cmd player.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	return f.err
}

func (f *fakePlayer) set(s player.Snapshot) {
	f.mu.Lock()
	f.snap = s
	f.mu.Unlock()
}

func (f *fakePlayer) last() (player.Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cmds) == 0 {
		return player.Command{}, false
	}
	return f.cmds[len(f.cmds)-1], true
}

func testPlaylist() *models.Playlist {
	return models.NewPlaylist("p", "Mix", []models.Track{
		models.NewTrack("1", "Alpha", []string{"X"}, "", 3*time.Minute),
		models.NewTrack("2", "Beta", []string{"Y"}, "", 3*time.Minute),
		models.NewTrack("3", "Gamma", []string{"X"}, "", 3*time.Minute),
		models.NewTrack("4", "Alpine", []string{"Z"}, "", 3*time.Minute),
	})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg to the model and runs any command it returns, feeding resulting Msgs back.
func press(t *testing.T, m *Model, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	if ui, ok := out.(Msg); ok {
		m.Update(ui)
	}
	return out
}

func TestModel_Navigation(t *testing.T) {
	tt := []struct {
		name string
		keys []tea.KeyMsg
		want int
	}{
		{name: "down", keys: []tea.KeyMsg{keyRunes("j"), keyRunes("j")}, want: 2},
		{name: "down stops at end", keys: []tea.KeyMsg{keyRunes("G"), keyRunes("j")}, want: 3},
		{name: "up stops at top", keys: []tea.KeyMsg{keyRunes("k")}, want: 0},
		{name: "top", keys: []tea.KeyMsg{keyRunes("G"), keyRunes("g")}, want: 0},
		{name: "arrow keys", keys: []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyDown}, {Type: tea.KeyUp}}, want: 1},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModel(t.Context(), newFakePlayer(), testPlaylist())
			for _, k := range tc.keys {
				m.Update(k)
			}
			if m.cursor != tc.want {
				t.Errorf("expected cursor %d, got %d", tc.want, m.cursor)
			}
		})
	}
}

func TestModel_Commands(t *testing.T) {
	tt := []struct {
		name string
		key  tea.KeyMsg
		kind player.Kind
	}{
		{name: "space toggles", key: tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, kind: player.KindTogglePlay},
		{name: "next", key: keyRunes("."), kind: player.KindNext},
		{name: "prev", key: keyRunes(","), kind: player.KindPrev},
		{name: "cycle mode", key: keyRunes("r"), kind: player.KindCycleMode},
		{name: "volume up", key: keyRunes("+"), kind: player.KindAdjustVolume},
		{name: "volume down", key: keyRunes("-"), kind: player.KindAdjustVolume},
		{name: "mute", key: keyRunes("m"), kind: player.KindToggleMute},
		{name: "seek back", key: tea.KeyMsg{Type: tea.KeyLeft}, kind: player.KindSeekRelative},
		{name: "seek forward", key: tea.KeyMsg{Type: tea.KeyRight}, kind: player.KindSeekRelative},
		{name: "shuffle", key: keyRunes("s"), kind: player.KindSetMode},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakePlayer()
			m := NewModel(t.Context(), p, testPlaylist())

			press(t, m, tc.key)

			got, ok := p.last()
			if !ok || got.Kind != tc.kind {
				t.Fatalf("expected %v, got %v (sent=%v)", tc.kind, got.Kind, ok)
			}
		})
	}
}

func TestModel_EnterPlaysSelected(t *testing.T) {
	p := newFakePlayer()
	pl := testPlaylist()
	m := NewModel(t.Context(), p, pl)

	m.Update(keyRunes("j"))
	m.Update(keyRunes("j"))
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	got, _ := p.last()
	if got.Kind != player.KindLoad || !got.Autoplay || got.Index != 2 || got.Playlist != pl {
		t.Errorf("expected LoadAndPlay(pl, 2), got %+v", got)
	}
}

func TestModel_ShuffleToggle(t *testing.T) {
	p := newFakePlayer()
	p.set(player.Snapshot{Index: -1, LyricIndex: -1, Mode: playback.SingleRepeat})
	m := NewModel(t.Context(), p, testPlaylist())

	press(t, m, keyRunes("s"))
	if got, _ := p.last(); got.Mode != playback.Shuffle {
		t.Fatalf("expected shuffle, got %v", got.Mode)
	}

	m.Update(snapshotMsg(player.Snapshot{Index: -1, LyricIndex: -1, Mode: playback.Shuffle}))
	press(t, m, keyRunes("s"))
	if got, _ := p.last(); got.Mode != playback.SingleRepeat {
		t.Errorf("expected previous mode to be restored, got %v", got.Mode)
	}
}

func TestModel_Search(t *testing.T) {
	p := newFakePlayer()
	m := NewModel(t.Context(), p, testPlaylist())

	m.Update(keyRunes("/"))
	if m.inputMode != SearchInput {
		t.Fatal("expected search input to open")
	}
	for _, r := range "alp" {
		m.Update(keyRunes(string(r)))
	}

	p.set(player.Snapshot{Index: -1, LyricIndex: -1, Query: "alp", SearchMatches: []int{0, 3}})
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	got, _ := p.last()
	if got.Kind != player.KindSetQuery || got.Query != "alp" {
		t.Fatalf("expected SetQuery(alp), got %+v", got)
	}
	if m.inputMode != NoInput {
		t.Error("expected input to close")
	}
	if m.cursor != 0 {
		t.Errorf("expected cursor on first match, got %d", m.cursor)
	}
	if !strings.Contains(m.status, "[1/2]") {
		t.Errorf("expected match status, got %q", m.status)
	}

	m.Update(keyRunes("n"))
	if m.cursor != 3 {
		t.Errorf("expected next match 3, got %d", m.cursor)
	}
	m.Update(keyRunes("n"))
	if m.cursor != 0 {
		t.Errorf("expected wrap to 0, got %d", m.cursor)
	}
	m.Update(keyRunes("N"))
	if m.cursor != 3 {
		t.Errorf("expected previous match 3, got %d", m.cursor)
	}

	m.Update(keyRunes("/"))
	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got, _ := p.last(); got.Kind != player.KindSetQuery || got.Query != "" {
		t.Errorf("expected esc to clear the query, got %+v", got)
	}
}

func TestModel_JumpToCurrent(t *testing.T) {
	p := newFakePlayer()
	m := NewModel(t.Context(), p, testPlaylist())

	m.Update(snapshotMsg(player.Snapshot{Index: 2, LyricIndex: -1, Status: playback.Playing}))
	m.Update(keyRunes("o"))
	if m.cursor != 2 {
		t.Errorf("expected cursor on current track, got %d", m.cursor)
	}
}

func TestModel_Lyrics(t *testing.T) {
	tl, err := models.NewLyricTimeline([]models.LyricLine{
		{At: 0, Text: "la"},
		{At: time.Second, Text: "la la"},
		{At: 2 * time.Second, Text: "la la la"},
	})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}

	p := newFakePlayer()
	m := NewModel(t.Context(), p, testPlaylist())
	m.Update(snapshotMsg(player.Snapshot{Index: 0, LyricIndex: 1, Lyrics: tl, Status: playback.Playing}))

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != LyricsPane || m.lyricCursor != 1 {
		t.Fatalf("expected lyrics focus at active line, got focus=%v cursor=%d", m.focus, m.lyricCursor)
	}

	m.Update(keyRunes("j"))
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	got, _ := p.last()
	if got.Kind != player.KindSeekToLyric || got.Index != 2 {
		t.Errorf("expected SeekToLyric(2), got %+v", got)
	}
	if m.cursor != 0 {
		t.Errorf("track cursor should not move in lyrics pane, got %d", m.cursor)
	}

	press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if got, _ := p.last(); got.Kind != player.KindTogglePlay {
		t.Errorf("expected global keys to work in lyrics pane, got %v", got.Kind)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != TracksPane {
		t.Error("expected tab to return to tracks")
	}
}

func TestModel_CommandLine(t *testing.T) {
	tt := []struct {
		name    string
		line    string
		kind    player.Kind
		wantErr bool
		quit    bool
	}{
		{name: "mode", line: "mode shuffle", kind: player.KindSetMode},
		{name: "volume", line: "vol 30", kind: player.KindSetVolume},
		{name: "seek", line: "seek 1:30", kind: player.KindSeek},
		{name: "unknown", line: "dance", wantErr: true},
		{name: "quit", line: "q", quit: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakePlayer()
			m := NewModel(t.Context(), p, testPlaylist())

			m.Update(keyRunes(":"))
			m.Update(keyRunes(tc.line))
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

			switch {
			case tc.quit:
				if cmd == nil {
					t.Fatal("expected quit command")
				}
				if _, ok := cmd().(tea.QuitMsg); !ok {
					t.Error("expected tea.QuitMsg")
				}
			case tc.wantErr:
				if !errors.Is(m.err, shared.ErrInvalidArgument) {
					t.Errorf("expected invalid argument, got %v", m.err)
				}
			default:
				if cmd == nil {
					t.Fatal("expected a player command")
				}
				cmd()
				if got, _ := p.last(); got.Kind != tc.kind {
					t.Errorf("expected %v, got %v", tc.kind, got.Kind)
				}
			}
		})
	}
}

func TestModel_Messages(t *testing.T) {
	t.Run("command failure is shown", func(t *testing.T) {
		p := newFakePlayer()
		p.err = shared.ErrInvalidIndex
		m := NewModel(t.Context(), p, testPlaylist())

		press(t, m, keyRunes("."))
		if !errors.Is(m.err, shared.ErrInvalidIndex) {
			t.Errorf("expected error to be recorded, got %v", m.err)
		}
		if !strings.Contains(m.View(), "error:") {
			t.Error("expected error line in view")
		}
	})

	t.Run("player error follows the snapshot", func(t *testing.T) {
		m := NewModel(t.Context(), newFakePlayer(), testPlaylist())
		failed := fmt.Errorf("%w: B", shared.ErrStreamUnavailable)

		m.Update(snapshotMsg(player.Snapshot{Index: 2, LyricIndex: -1, LastError: failed}))
		if !errors.Is(m.err, shared.ErrStreamUnavailable) {
			t.Fatalf("expected snapshot error, got %v", m.err)
		}

		m.Update(commandFailedMsg(shared.ErrInvalidIndex))
		m.Update(snapshotMsg(player.Snapshot{Index: 2, LyricIndex: -1, LastError: failed}))
		if !errors.Is(m.err, shared.ErrInvalidIndex) {
			t.Errorf("unchanged snapshot error should not replace %v, got %v", shared.ErrInvalidIndex, m.err)
		}

		m.Update(snapshotMsg(player.Snapshot{Index: 0, LyricIndex: -1}))
		if m.err != nil {
			t.Errorf("expected cleared error, got %v", m.err)
		}
	})

	t.Run("closed player quits", func(t *testing.T) {
		p := newFakePlayer()
		p.err = shared.ErrClosed
		m := NewModel(t.Context(), p, testPlaylist())

		_, cmd := m.Update(keyRunes("."))
		msg := cmd()
		_, quit := m.Update(msg)
		if quit == nil {
			t.Fatal("expected quit")
		}
		if _, ok := quit().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("update subscription", func(t *testing.T) {
		p := newFakePlayer()
		m := NewModel(t.Context(), p, testPlaylist())

		p.set(player.Snapshot{Index: 1, LyricIndex: -1, Status: playback.Playing, Volume: 80})
		p.updates <- struct{}{}

		msg := m.Init()()
		_, next := m.Update(msg)
		if m.snap.Index != 1 || m.snap.Volume != 80 {
			t.Errorf("expected snapshot to be applied, got %+v", m.snap)
		}
		if next == nil {
			t.Error("expected the subscription to continue")
		}
	})

	t.Run("cancelled context ends subscription", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		m := NewModel(ctx, newFakePlayer(), testPlaylist())

		msg, ok := m.Init()().(Msg)
		if !ok || msg.kind != MsgPlayerClosed {
			t.Errorf("expected player closed message, got %v", msg)
		}
	})
}

func TestModel_View(t *testing.T) {
	pl := models.NewPlaylist("p", "夜曲集", []models.Track{
		models.NewTrack("1", "夜曲", []string{"周杰伦"}, "", 226*time.Second),
	})
	p := newFakePlayer()
	m := NewModel(t.Context(), p, pl)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m.Update(snapshotMsg(player.Snapshot{
		Status:       playback.Playing,
		Playlist:     pl,
		Index:        0,
		CurrentTrack: pl.Tracks()[0],
		Position:     61 * time.Second,
		Duration:     226 * time.Second,
		Volume:       50,
		LyricIndex:   -1,
	}))

	view := m.View()
	for _, want := range []string{"夜曲集", "01:01/03:46", "▶"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	tt := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "fits", in: "abc", width: 5, want: "abc"},
		{name: "ascii", in: "abcdef", width: 4, want: "abc…"},
		{name: "wide runes", in: "夜曲夜曲", width: 5, want: "夜曲…"},
		{name: "zero width", in: "abc", width: 0, want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := truncate(tc.in, tc.width); got != tc.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	tt := []struct {
		cursor, n, height int
		start, end        int
	}{
		{cursor: 0, n: 3, height: 10, start: 0, end: 3},
		{cursor: 50, n: 100, height: 10, start: 45, end: 55},
		{cursor: 99, n: 100, height: 10, start: 90, end: 100},
		{cursor: 2, n: 100, height: 10, start: 0, end: 10},
	}

	for _, tc := range tt {
		start, end := window(tc.cursor, tc.n, tc.height)
		if start != tc.start || end != tc.end {
			t.Errorf("window(%d, %d, %d) = [%d, %d), want [%d, %d)", tc.cursor, tc.n, tc.height, start, end, tc.start, tc.end)
		}
	}
}
