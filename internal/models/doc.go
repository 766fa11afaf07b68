// Package models defines the read-only domain values handed to the playback core.
//
// Values are created by the API client (internal/services) and never mutated afterwards:
//   - [Track] : Song metadata with an optional attached [LyricTimeline]
//   - [Playlist] : Ordered, identified sequence of tracks (order is playback order)
//   - [PlaylistSummary] : Playlist metadata without tracks, used for listings
//   - [LyricLine] / [LyricTimeline] : Time-tagged lyric lines, strictly increasing by timestamp
//
// Attaching lyrics to a track produces a new value via [Track.WithLyrics].
package models
