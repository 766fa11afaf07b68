package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/shared"
)

const (
	defaultStreamRetries = 3
	defaultRetryBackoff  = 500 * time.Millisecond
)

// loadResult reports a finished load back to the run goroutine.
type loadResult struct {
	gen      uint64
	index    int
	trackID  string
	timeline *models.LyricTimeline
	err      error
}

// load resolves, fetches lyrics for and opens track. It runs on its own goroutine.
func (c *Coordinator) load(ctx context.Context, gen uint64, index int, track models.Track) {
	res := loadResult{gen: gen, index: index, trackID: track.ID}
	defer func() { c.send(ctx, res) }()

	url, err := c.resolve(ctx, track.ID)
	if err != nil {
		res.err = err
		return
	}

	res.timeline = c.fetchLyrics(ctx, track)

	c.openMu.Lock()
	defer c.openMu.Unlock()
	if err := ctx.Err(); err != nil {
		res.err = err
		return
	}
	if err := c.backend.Open(ctx, url); err != nil {
		res.err = fmt.Errorf("%w: open %s: %w", shared.ErrBackend, track.ID, err)
	}
}

// resolve asks the source for a stream URL, retrying transient failures with exponential backoff.
//
// [shared.ErrStreamUnavailable] from the source is permanent and returned at once. Exhausted retries
// are classified as [shared.ErrStreamUnavailable].
func (c *Coordinator) resolve(ctx context.Context, trackID string) (string, error) {
	retries := c.opts.StreamRetries
	if retries <= 0 {
		retries = defaultStreamRetries
	}
	backoff := c.opts.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	var lastErr error
	for attempt := range retries {
		url, err := c.source.ResolveStreamURL(ctx, trackID)
		switch {
		case err == nil && url != "":
			return url, nil
		case err == nil:
			return "", fmt.Errorf("%w: empty url for %s", shared.ErrStreamUnavailable, trackID)
		case errors.Is(err, shared.ErrStreamUnavailable):
			return "", err
		case ctx.Err() != nil:
			return "", ctx.Err()
		}

		lastErr = err
		c.logger.Warn("stream resolve failed", "track", trackID, "attempt", attempt+1, "of", retries, "error", err)
		if attempt == retries-1 {
			break
		}
		if err := sleepWithContext(ctx, backoff*time.Duration(1<<attempt)); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: %s after %d attempts: %w", shared.ErrStreamUnavailable, trackID, retries, lastErr)
}

// fetchLyrics returns the track's attached lyrics, else asks the source. Failures degrade to an empty timeline.
func (c *Coordinator) fetchLyrics(ctx context.Context, track models.Track) *models.LyricTimeline {
	if track.HasLyrics() {
		return track.Lyrics()
	}
	tl, err := c.source.FetchLyrics(ctx, track.ID)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("lyrics unavailable", "track", track.ID, "error", err)
		}
		return models.EmptyTimeline()
	}
	return tl
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
