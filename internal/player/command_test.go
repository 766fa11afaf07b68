package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/playback"
	"github.com/desertthunder/ncmx/internal/shared"
)

func TestParseCommand(t *testing.T) {
	tt := []struct {
		name    string
		cmd     string
		arg     string
		want    Command
		wantErr error
	}{
		{name: "play", cmd: "play", want: Play()},
		{name: "toggle", cmd: "Toggle", want: TogglePlay()},
		{name: "previous alias", cmd: "previous", want: Prev()},
		{name: "seek clock", cmd: "seek", arg: "1:30", want: Seek(90 * time.Second)},
		{name: "skip forward", cmd: "skip", arg: "+5", want: SeekRelative(5 * time.Second)},
		{name: "skip back", cmd: "skip", arg: "-0:10", want: SeekRelative(-10 * time.Second)},
		{name: "lyric", cmd: "lyric", arg: "3", want: SeekToLyric(3)},
		{name: "mode", cmd: "mode", arg: "list-repeat", want: SetMode(playback.ListRepeat)},
		{name: "absolute volume", cmd: "vol", arg: "40", want: SetVolume(40)},
		{name: "relative volume", cmd: "volume", arg: "-5", want: AdjustVolume(-5)},
		{name: "query", cmd: "search", arg: "  晴天 ", want: SetQuery("晴天")},
		{name: "unknown", cmd: "eject", wantErr: shared.ErrInvalidArgument},
		{name: "bad mode", cmd: "mode", arg: "loop-de-loop", wantErr: shared.ErrInvalidArgument},
		{name: "missing lyric index", cmd: "lyric", wantErr: shared.ErrMissingArgument},
		{name: "bad volume", cmd: "vol", arg: "loud", wantErr: shared.ErrInvalidArgument},
		{name: "missing skip", cmd: "skip", wantErr: shared.ErrMissingArgument},
		{name: "bad seek", cmd: "seek", arg: "later", wantErr: shared.ErrInvalidArgument},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCommand(tc.cmd, tc.arg)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("ParseCommand(%q, %q) error = %v, want %v", tc.cmd, tc.arg, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand(%q, %q) error = %v", tc.cmd, tc.arg, err)
			}
			if got.Kind != tc.want.Kind || got.Offset != tc.want.Offset || got.Index != tc.want.Index ||
				got.Mode != tc.want.Mode || got.Value != tc.want.Value || got.Query != tc.want.Query {
				t.Errorf("ParseCommand(%q, %q) = %+v, want %+v", tc.cmd, tc.arg, got, tc.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindSeekToLyric.String() != "lyric" || Kind(99).String() != "kind(99)" {
		t.Errorf("unexpected kind names: %s %s", KindSeekToLyric, Kind(99))
	}
}

func TestResolveRetry(t *testing.T) {
	c := New(nil, nil, Options{StreamRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	c.source = sourceFunc(func() (string, error) {
		calls++
		return "", errors.New("connection reset")
	})

	_, err := c.resolve(t.Context(), "X")
	if !errors.Is(err, shared.ErrStreamUnavailable) || calls != 2 {
		t.Errorf("resolve = %v after %d calls", err, calls)
	}

	calls = 0
	c.source = sourceFunc(func() (string, error) {
		calls++
		return "", nil
	})
	if _, err := c.resolve(t.Context(), "X"); !errors.Is(err, shared.ErrStreamUnavailable) || calls != 1 {
		t.Errorf("empty url should be unavailable without retry: %v after %d calls", err, calls)
	}
}

type sourceFunc func() (string, error)

func (f sourceFunc) ResolveStreamURL(context.Context, string) (string, error) { return f() }

func (f sourceFunc) FetchLyrics(context.Context, string) (*models.LyricTimeline, error) {
	return models.EmptyTimeline(), nil
}
