// NetEase Cloud Music [Service] implementation
//
// Talks to a NeteaseCloudMusicApi-compatible proxy. Login state is carried by the MUSIC_U cookie.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ncmx/internal/lyrics"
	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/shared"
)

const (
	// detailBatch bounds the ids per /song/detail request.
	detailBatch = 500
	// trackPage is the page size for /playlist/track/all.
	trackPage = 500
	// defaultQuality is the /song/url/v1 level requested for streams.
	defaultQuality = "standard"
)

type neteaseArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type neteaseAlbum struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NeteaseSong is a track as returned by /song/detail and /playlist/track/all.
type NeteaseSong struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Artists  []neteaseArtist `json:"ar"`
	Album    neteaseAlbum    `json:"al"`
	Duration int64           `json:"dt"` // milliseconds
}

// NeteasePlaylist is a playlist header as returned by /user/playlist and /playlist/detail.
type NeteasePlaylist struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"trackCount"`
	SpecialType int    `json:"specialType"` // 5 marks the liked-songs playlist
	Creator     struct {
		UserID   int64  `json:"userId"`
		Nickname string `json:"nickname"`
	} `json:"creator"`
}

// NeteaseService implements the Service interface for NetEase Cloud Music via proxy.
type NeteaseService struct {
	api     *APIService
	quality string
}

// NewNeteaseService creates a service that sends its requests through api.
func NewNeteaseService(api *APIService) *NeteaseService {
	return &NeteaseService{api: api, quality: defaultQuality}
}

// WithQuality sets the /song/url/v1 level (standard, higher, exhigh, lossless, hires).
func (n *NeteaseService) WithQuality(level string) *NeteaseService {
	if level != "" {
		n.quality = level
	}
	return n
}

// Name returns the service name.
func (n *NeteaseService) Name() string {
	return "NetEase Cloud Music"
}

// Account calls GET /user/account.
func (n *NeteaseService) Account(ctx context.Context) (*Account, error) {
	var resp struct {
		Account *struct {
			ID      int64 `json:"id"`
			VIPType int   `json:"vipType"`
		} `json:"account"`
		Profile *struct {
			UserID   int64  `json:"userId"`
			Nickname string `json:"nickname"`
		} `json:"profile"`
	}
	if err := n.api.GetJSON(ctx, "/user/account", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Account == nil || resp.Profile == nil {
		return nil, fmt.Errorf("%w: no account for the configured cookie", shared.ErrNotAuthenticated)
	}
	return &Account{
		UserID:   strconv.FormatInt(resp.Profile.UserID, 10),
		Nickname: resp.Profile.Nickname,
		VIP:      resp.Account.VIPType != 0,
	}, nil
}

// FetchFavorites calls GET /likelist for the liked ids, then resolves them with /song/detail.
func (n *NeteaseService) FetchFavorites(ctx context.Context, userID string) (*models.Playlist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	var likes struct {
		IDs []int64 `json:"ids"`
	}
	if err := n.api.GetJSON(ctx, "/likelist", url.Values{"uid": {userID}}, &likes); err != nil {
		return nil, err
	}

	songs, err := n.songDetails(ctx, likes.IDs)
	if err != nil {
		return nil, err
	}
	return models.NewPlaylist("favorites:"+userID, "Liked Songs", toTracks(songs)), nil
}

// FetchPlaylists calls GET /user/playlist.
func (n *NeteaseService) FetchPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	var resp struct {
		Playlists []NeteasePlaylist `json:"playlist"`
	}
	query := url.Values{"uid": {userID}, "limit": {"1000"}}
	if err := n.api.GetJSON(ctx, "/user/playlist", query, &resp); err != nil {
		return nil, err
	}

	out := make([]models.PlaylistSummary, 0, len(resp.Playlists))
	for _, p := range resp.Playlists {
		out = append(out, p.summary())
	}
	return out, nil
}

// FetchPlaylist calls GET /playlist/detail for the header and pages through GET /playlist/track/all.
func (n *NeteaseService) FetchPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var detail struct {
		Playlist *NeteasePlaylist `json:"playlist"`
	}
	if err := n.api.GetJSON(ctx, "/playlist/detail", url.Values{"id": {playlistID}}, &detail); err != nil {
		return nil, err
	}
	if detail.Playlist == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	var songs []NeteaseSong
	for offset := 0; ; offset += trackPage {
		var page struct {
			Songs []NeteaseSong `json:"songs"`
		}
		query := url.Values{
			"id":     {playlistID},
			"limit":  {strconv.Itoa(trackPage)},
			"offset": {strconv.Itoa(offset)},
		}
		if err := n.api.GetJSON(ctx, "/playlist/track/all", query, &page); err != nil {
			return nil, err
		}
		songs = append(songs, page.Songs...)
		if len(page.Songs) < trackPage {
			break
		}
	}

	return models.NewPlaylist(playlistID, detail.Playlist.Name, toTracks(songs)), nil
}

// FetchLyrics calls GET /lyric and parses the original and translated LRC.
func (n *NeteaseService) FetchLyrics(ctx context.Context, trackID string) (*models.LyricTimeline, error) {
	var resp struct {
		Lrc         *struct{ Lyric string } `json:"lrc"`
		TLyric      *struct{ Lyric string } `json:"tlyric"`
		NoLyric     bool                    `json:"nolyric"`
		Uncollected bool                    `json:"uncollected"`
	}
	if err := n.api.GetJSON(ctx, "/lyric", url.Values{"id": {trackID}}, &resp); err != nil {
		return nil, err
	}
	if resp.NoLyric || resp.Uncollected || resp.Lrc == nil {
		return models.EmptyTimeline(), nil
	}

	var translated string
	if resp.TLyric != nil {
		translated = resp.TLyric.Lyric
	}
	return lyrics.ParseLRCWithTranslation(resp.Lrc.Lyric, translated), nil
}

// ResolveStreamURL calls GET /song/url/v1. A null url (region lock, VIP only, removed) maps to
// [shared.ErrStreamUnavailable], also wrapping [shared.ErrTrackNotFound] when the id is absent from the reply.
func (n *NeteaseService) ResolveStreamURL(ctx context.Context, trackID string) (string, error) {
	var resp struct {
		Data []struct {
			ID   int64   `json:"id"`
			URL  *string `json:"url"`
			Code int     `json:"code"`
		} `json:"data"`
	}
	query := url.Values{"id": {trackID}, "level": {n.quality}}
	if err := n.api.GetJSON(ctx, "/song/url/v1", query, &resp); err != nil {
		return "", err
	}

	for _, d := range resp.Data {
		if strconv.FormatInt(d.ID, 10) != trackID {
			continue
		}
		if d.URL == nil || *d.URL == "" {
			return "", fmt.Errorf("%w: track %s (code %d)", shared.ErrStreamUnavailable, trackID, d.Code)
		}
		return *d.URL, nil
	}
	return "", fmt.Errorf("%w: %w: %s", shared.ErrStreamUnavailable, shared.ErrTrackNotFound, trackID)
}

// songDetails resolves ids in batches, preserving their order and skipping ids the service no longer knows.
func (n *NeteaseService) songDetails(ctx context.Context, ids []int64) ([]NeteaseSong, error) {
	out := make([]NeteaseSong, 0, len(ids))
	for start := 0; start < len(ids); start += detailBatch {
		batch := ids[start:min(start+detailBatch, len(ids))]

		parts := make([]string, len(batch))
		for i, id := range batch {
			parts[i] = strconv.FormatInt(id, 10)
		}

		var resp struct {
			Songs []NeteaseSong `json:"songs"`
		}
		if err := n.api.GetJSON(ctx, "/song/detail", url.Values{"ids": {strings.Join(parts, ",")}}, &resp); err != nil {
			return nil, err
		}

		byID := make(map[int64]NeteaseSong, len(resp.Songs))
		for _, s := range resp.Songs {
			byID[s.ID] = s
		}
		for _, id := range batch {
			if s, ok := byID[id]; ok {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (p NeteasePlaylist) summary() models.PlaylistSummary {
	return models.PlaylistSummary{
		ID:          strconv.FormatInt(p.ID, 10),
		Name:        p.Name,
		Description: p.Description,
		TrackCount:  p.TrackCount,
		Owner:       p.Creator.Nickname,
	}
}

func (s NeteaseSong) track() models.Track {
	artists := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}
	return models.NewTrack(strconv.FormatInt(s.ID, 10), s.Name, artists, s.Album.Name, time.Duration(s.Duration)*time.Millisecond)
}

func toTracks(songs []NeteaseSong) []models.Track {
	tracks := make([]models.Track, len(songs))
	for i, s := range songs {
		tracks[i] = s.track()
	}
	return tracks
}
