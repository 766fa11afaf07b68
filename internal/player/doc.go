// package player coordinates playback: it owns the playback state, drives the media backend,
// tracks the playback position and publishes immutable snapshots for renderers.
//
// A [Coordinator] runs a single goroutine that serializes user commands, backend events,
// load completions and position-tracker ticks. Track loads (stream URL resolution, lyric fetch
// and backend open) run asynchronously and are tagged with a load generation so stale
// completions are discarded.
package player
