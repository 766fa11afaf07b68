package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ncmx/internal/shared"
)

// Lyrics prints a track's timed lyric lines as "[mm:ss.cc] text".
func (r *Runner) Lyrics(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}

	tl, err := r.service.FetchLyrics(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch lyrics: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tl.Lines(), true)
	}

	if tl.Len() == 0 {
		r.writePlain("No lyrics for track %s\n", id)
		return nil
	}

	for _, line := range tl.Lines() {
		r.writePlain("[%s] %s\n", lrcStamp(line.At), line.Text)
		if line.Translation != "" {
			r.writePlain("           %s\n", line.Translation)
		}
	}
	return nil
}

// lrcStamp renders d as mm:ss.cc.
func lrcStamp(d time.Duration) string {
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, (cs/100)%60, cs%100)
}
