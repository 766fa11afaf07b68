package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ncmx/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgCommandFailed
	MsgQueryApplied
	MsgPlayerClosed
)

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(s player.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: s}
}

// commandFailedMsg is the constructor for [MsgCommandFailed]
func commandFailedMsg(err error) Msg {
	return Msg{kind: MsgCommandFailed, data: err}
}

// queryAppliedMsg is the constructor for [MsgQueryApplied]
func queryAppliedMsg(s player.Snapshot) Msg {
	return Msg{kind: MsgQueryApplied, data: s}
}

// playerClosedMsg is the constructor for [MsgPlayerClosed]
func playerClosedMsg() Msg {
	return Msg{kind: MsgPlayerClosed}
}
