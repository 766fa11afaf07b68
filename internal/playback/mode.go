package playback

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ncmx/internal/shared"
)

// Mode selects how the next track is chosen.
type Mode int

const (
	Single Mode = iota
	SingleRepeat
	ListRepeat
	Shuffle
)

var modeNames = map[Mode]string{
	Single:       "single",
	SingleRepeat: "single-repeat",
	ListRepeat:   "list-repeat",
	Shuffle:      "shuffle",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Next returns the mode that follows m in the UI cycle.
func (m Mode) Next() Mode {
	return (m + 1) % 4
}

// Valid reports whether m is one of the four defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode accepts a mode name ("single", "single-repeat", "list-repeat", "shuffle") or a short alias.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "once", "":
		return Single, nil
	case "single-repeat", "repeat-one", "one":
		return SingleRepeat, nil
	case "list-repeat", "repeat", "repeat-all", "all":
		return ListRepeat, nil
	case "shuffle", "random":
		return Shuffle, nil
	}
	return Single, fmt.Errorf("%w: unknown playback mode %q", shared.ErrInvalidArgument, s)
}

// Status is the machine's coarse playback state.
type Status int

const (
	Idle Status = iota
	Transitioning
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Transitioning:
		return "transitioning"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Direction selects forward or backward movement through the queue.
type Direction int

const (
	Forward Direction = iota
	Backward
)
