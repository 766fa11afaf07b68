// Package ui implements the interactive player using bubbletea's Elm architecture.
//
// The screen has two panes: the track list and the synchronized lyrics. A playback bar shows the
// current track, progress, mode and volume.
//
// The [Model] never owns playback state. It renders the latest [player.Snapshot] and turns key presses
// into [player.Command] values sent to the coordinator. Snapshot updates arrive as messages from a
// subscription command that blocks on the coordinator's update signal.
//
// Keyboard navigation uses vim-style bindings (j/k, g/G, n/N) with contextual help displayed via
// charmbracelet/bubbles/help. "/" opens a search prompt and ":" a command line that accepts the same
// command names as the remote-control server.
package ui
