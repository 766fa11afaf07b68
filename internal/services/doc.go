// Package services defines the [Service] interface for the music catalogue and implements it for
// NetEase Cloud Music through a NeteaseCloudMusicApi-compatible HTTP proxy.
//
// # Transport
//
// [APIService] is the raw HTTP client. Every request passes one shared rate limiter
// (golang.org/x/time/rate), carries the login cookie as a Cookie header and a timestamp
// parameter that makes the proxy bypass its response cache.
//
// # NetEase Implementation
//
// [NeteaseService] maps proxy endpoints onto the catalogue operations:
//   - /user/account : the logged-in user
//   - /likelist + /song/detail : liked songs, in batches of 500 ids
//   - /user/playlist, /playlist/detail, /playlist/track/all : playlists
//   - /lyric : original and translated LRC, parsed into a [models.LyricTimeline]
//   - /song/url/v1 : stream URLs
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure, 5xx/429, or a non-200 envelope code (retryable)
//   - [shared.ErrNotAuthenticated] : envelope code 301, the cookie is missing or expired
//   - [shared.ErrPlaylistNotFound] : playlist id not found
//   - [shared.ErrStreamUnavailable] : the track has no stream (null url)
package services
