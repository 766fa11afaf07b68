// package services defines interface Service for the music catalogue behind the player
//
// NetEase Cloud Music (via a NeteaseCloudMusicApi proxy)
package services

import (
	"context"

	"github.com/desertthunder/ncmx/internal/models"
)

// Service defines the catalogue operations the client needs: the user's library, lyrics and playable stream URLs.
type Service interface {
	// Name returns the name of the service.
	Name() string

	// Account returns the logged-in user. Fails with [shared.ErrNotAuthenticated] without a valid cookie.
	Account(ctx context.Context) (*Account, error)

	// FetchFavorites returns the user's liked tracks as a playlist, in the service's order.
	FetchFavorites(ctx context.Context, userID string) (*models.Playlist, error)

	// FetchPlaylists lists the user's playlists without tracks.
	FetchPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error)

	// FetchPlaylist returns a playlist with all its tracks.
	FetchPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// FetchLyrics returns the timed lyrics of a track, with translations when available.
	// Tracks without lyrics yield an empty timeline.
	FetchLyrics(ctx context.Context, trackID string) (*models.LyricTimeline, error)

	// ResolveStreamURL returns a playable URL for a track.
	// Fails with [shared.ErrStreamUnavailable] when the service has no stream for it.
	ResolveStreamURL(ctx context.Context, trackID string) (string, error)
}

// Account identifies the logged-in user.
type Account struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	VIP      bool   `json:"vip"`
}
