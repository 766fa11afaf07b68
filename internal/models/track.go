package models

import (
	"strings"
	"time"
)

// Track represents a single playable song.
type Track struct {
	ID       string
	Title    string
	Artists  []string
	Album    string
	Duration time.Duration
	lyrics   *LyricTimeline
}

// NewTrack creates a Track, copying the artist slice so the caller cannot mutate it later.
func NewTrack(id, title string, artists []string, album string, duration time.Duration) Track {
	return Track{
		ID:       id,
		Title:    title,
		Artists:  append([]string(nil), artists...),
		Album:    album,
		Duration: duration,
	}
}

// Artist returns all artist names joined for display.
func (t Track) Artist() string {
	return strings.Join(t.Artists, " / ")
}

// Lyrics returns the attached timeline, or an empty timeline when none was attached.
func (t Track) Lyrics() *LyricTimeline {
	if t.lyrics == nil {
		return emptyTimeline
	}
	return t.lyrics
}

// HasLyrics reports whether a non-empty timeline is attached.
func (t Track) HasLyrics() bool {
	return t.lyrics != nil && t.lyrics.Len() > 0
}

// WithLyrics returns a copy of the track with tl attached.
func (t Track) WithLyrics(tl *LyricTimeline) Track {
	t.Artists = append([]string(nil), t.Artists...)
	t.lyrics = tl
	return t
}
