package player

import (
	"context"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
)

// Backend is the audio output. Implementations must be safe for concurrent use:
// Open runs on a load goroutine while the coordinator issues the other calls.
//
// Open replaces the current stream and leaves it paused at position zero with the end-of-stream flag cleared.
type Backend interface {
	Open(ctx context.Context, url string) error
	Play() error
	Pause() error
	Stop() error
	Seek(d time.Duration) error
	SetVolume(v int) error
	Position() time.Duration
	EndOfStream() bool
	Errors() <-chan error
}

// Source resolves stream URLs and lyrics for tracks.
type Source interface {
	ResolveStreamURL(ctx context.Context, trackID string) (string, error)
	FetchLyrics(ctx context.Context, trackID string) (*models.LyricTimeline, error)
}
