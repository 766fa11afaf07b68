package player

import (
	"time"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/playback"
	"github.com/desertthunder/ncmx/internal/search"
)

// Snapshot is an immutable view of the committed playback state.
//
// Slices and pointers in a Snapshot are shared between readers and must not be modified.
type Snapshot struct {
	Status        playback.Status
	Mode          playback.Mode
	IsPlaying     bool
	Playlist      *models.Playlist
	Index         int          // -1 without a current track
	CurrentTrack  models.Track // zero value without a current track
	Position      time.Duration
	Duration      time.Duration
	Volume        int
	Muted         bool
	Lyrics        *models.LyricTimeline
	LyricIndex    int // -1 before the first line or without lyrics
	ActiveLyric   models.LyricLine
	Query         string
	SearchMatches []int // playlist indices matching Query, ascending
	LastError     error
	Generation    uint64
}

// HasTrack reports whether a track is loaded or loading.
func (s Snapshot) HasTrack() bool { return s.Index >= 0 }

// JumpToCurrent returns the current track's position within the filtered list.
func (s Snapshot) JumpToCurrent() (int, bool) {
	return search.Position(s.SearchMatches, s.Index)
}

// NextMatch returns the first matching playlist index after from, wrapping around.
func (s Snapshot) NextMatch(from int) (int, bool) {
	return search.Next(s.SearchMatches, from)
}

// PrevMatch returns the last matching playlist index before from, wrapping around.
func (s Snapshot) PrevMatch(from int) (int, bool) {
	return search.Prev(s.SearchMatches, from)
}

// snapshot builds a Snapshot from state owned by the run goroutine.
func (c *Coordinator) snapshot() *Snapshot {
	m := c.machine
	s := &Snapshot{
		Status:        m.Status(),
		Mode:          m.Mode(),
		IsPlaying:     m.Status() == playback.Playing,
		Playlist:      m.Playlist(),
		Index:         m.Index(),
		Position:      m.Position(),
		Duration:      m.Duration(),
		Volume:        m.Volume(),
		Muted:         m.Muted(),
		Lyrics:        c.lyrics.Timeline(),
		LyricIndex:    -1,
		Query:         c.search.Query(),
		SearchMatches: c.search.View(),
		LastError:     c.lastErr,
		Generation:    c.gen,
	}
	if t, ok := m.CurrentTrack(); ok {
		s.CurrentTrack = t
	}
	if m.Active() {
		s.LyricIndex = c.lyrics.ActiveIndex(s.Position)
		if line, ok := s.Lyrics.Line(s.LyricIndex); ok {
			s.ActiveLyric = line
		}
	}
	return s
}

// publish commits a new snapshot and signals subscribers without blocking.
func (c *Coordinator) publish() {
	c.current.Store(c.snapshot())
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
