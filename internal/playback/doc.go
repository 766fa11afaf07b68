// Package playback implements the playback state machine.
//
// # Modes
//
// [Mode] is a closed enum (Single, SingleRepeat, ListRepeat, Shuffle). The mode-dependent choice of the next or
// previous track lives in a single pure function, [Advance], so the whole rule can be tested as a table.
//
// # States
//
// [Machine] moves between [Idle], [Transitioning], [Playing] and [Paused]:
//
//	Load/Next/Prev ─▶ Transitioning ─(Loaded)─▶ Playing | Paused
//	Play/Pause     ─▶ Playing ⇄ Paused (no-op from Idle or when already there)
//	Next/Prev with no successor (Single mode) ─▶ Idle
//
// The Machine performs no I/O. The player package drives it from a single goroutine and turns its results into
// media backend calls.
//
// # Shuffle
//
// [ShuffleOrder] is a permutation of playlist indices. It is regenerated when the bound playlist changes identity or
// shuffle is switched on, with the current track pinned at the cursor, and is never regenerated by Next/Prev.
package playback
