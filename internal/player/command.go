package player

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ncmx/internal/formatter"
	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/playback"
	"github.com/desertthunder/ncmx/internal/shared"
)

// Kind identifies a command.
type Kind int

const (
	KindLoad Kind = iota
	KindPlay
	KindPause
	KindTogglePlay
	KindNext
	KindPrev
	KindSeek
	KindSeekRelative
	KindSeekToLyric
	KindSetMode
	KindCycleMode
	KindSetVolume
	KindAdjustVolume
	KindToggleMute
	KindSetQuery
	KindStop
	KindRebind
)

var kindNames = map[Kind]string{
	KindLoad:         "load",
	KindPlay:         "play",
	KindPause:        "pause",
	KindTogglePlay:   "toggle",
	KindNext:         "next",
	KindPrev:         "prev",
	KindSeek:         "seek",
	KindSeekRelative: "skip",
	KindSeekToLyric:  "lyric",
	KindSetMode:      "mode",
	KindCycleMode:    "cycle-mode",
	KindSetVolume:    "volume",
	KindAdjustVolume: "volume-adjust",
	KindToggleMute:   "mute",
	KindSetQuery:     "query",
	KindStop:         "stop",
	KindRebind:       "rebind",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// needsBackend reports whether the command acts on the loaded stream and must wait out a transition.
func (k Kind) needsBackend() bool {
	return k == KindSeek || k == KindSeekRelative || k == KindSeekToLyric
}

// Command is a request to the [Coordinator]. Build one with the constructors in this file.
type Command struct {
	Kind     Kind
	Playlist *models.Playlist
	Index    int
	Offset   time.Duration
	Mode     playback.Mode
	Value    int
	Query    string
	Autoplay bool // Load clears a standing pause

	id    string
	reply chan error
}

func Load(pl *models.Playlist, index int) Command {
	return Command{Kind: KindLoad, Playlist: pl, Index: index}
}

// LoadAndPlay loads like [Load] and finishes Playing even if playback was paused.
func LoadAndPlay(pl *models.Playlist, index int) Command {
	return Command{Kind: KindLoad, Playlist: pl, Index: index, Autoplay: true}
}

func Play() Command       { return Command{Kind: KindPlay} }
func Pause() Command      { return Command{Kind: KindPause} }
func TogglePlay() Command { return Command{Kind: KindTogglePlay} }
func Next() Command       { return Command{Kind: KindNext} }
func Prev() Command       { return Command{Kind: KindPrev} }
func Stop() Command       { return Command{Kind: KindStop} }
func CycleMode() Command  { return Command{Kind: KindCycleMode} }
func ToggleMute() Command { return Command{Kind: KindToggleMute} }

// Seek moves to an absolute position in the current track.
func Seek(d time.Duration) Command { return Command{Kind: KindSeek, Offset: d} }

// SeekRelative moves by delta from the current position.
func SeekRelative(delta time.Duration) Command { return Command{Kind: KindSeekRelative, Offset: delta} }

// SeekToLyric moves to the timestamp of lyric line i.
func SeekToLyric(i int) Command { return Command{Kind: KindSeekToLyric, Index: i} }

func SetMode(m playback.Mode) Command { return Command{Kind: KindSetMode, Mode: m} }
func SetVolume(v int) Command         { return Command{Kind: KindSetVolume, Value: v} }
func AdjustVolume(delta int) Command  { return Command{Kind: KindAdjustVolume, Value: delta} }
func SetQuery(q string) Command       { return Command{Kind: KindSetQuery, Query: q} }

// Rebind swaps in a refreshed copy of the bound playlist, keeping the current track when it is still present.
func Rebind(pl *models.Playlist) Command { return Command{Kind: KindRebind, Playlist: pl} }

// ParseCommand builds a command from its name and a textual argument, as typed on the
// command line or posted to the control server. Load and Rebind carry playlists and cannot be parsed.
func ParseCommand(name, arg string) (Command, error) {
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "play":
		return Play(), nil
	case "pause":
		return Pause(), nil
	case "toggle":
		return TogglePlay(), nil
	case "next":
		return Next(), nil
	case "prev", "previous":
		return Prev(), nil
	case "stop":
		return Stop(), nil
	case "mute":
		return ToggleMute(), nil
	case "cycle-mode":
		return CycleMode(), nil
	case "query", "search":
		return SetQuery(arg), nil
	case "seek":
		d, err := formatter.ParseClock(arg)
		if err != nil {
			return Command{}, err
		}
		return Seek(d), nil
	case "skip":
		d, err := parseSignedDuration(arg)
		if err != nil {
			return Command{}, err
		}
		return SeekRelative(d), nil
	case "lyric":
		i, err := requireInt(name, arg)
		if err != nil {
			return Command{}, err
		}
		return SeekToLyric(i), nil
	case "mode":
		m, err := playback.ParseMode(arg)
		if err != nil {
			return Command{}, err
		}
		return SetMode(m), nil
	case "volume", "vol":
		if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
			delta, err := requireInt(name, arg)
			if err != nil {
				return Command{}, err
			}
			return AdjustVolume(delta), nil
		}
		v, err := requireInt(name, arg)
		if err != nil {
			return Command{}, err
		}
		return SetVolume(v), nil
	}
	return Command{}, fmt.Errorf("%w: unknown command %q", shared.ErrInvalidArgument, name)
}

func requireInt(name, arg string) (int, error) {
	if arg == "" {
		return 0, fmt.Errorf("%w: %s needs a number", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %s wants a number, got %q", shared.ErrInvalidArgument, name, arg)
	}
	return n, nil
}

// parseSignedDuration accepts "+5s", "-10", "-1:30".
func parseSignedDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: skip needs an offset", shared.ErrMissingArgument)
	}
	sign := time.Duration(1)
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	d, err := formatter.ParseClock(s)
	if err != nil {
		return 0, err
	}
	return sign * d, nil
}
