package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/desertthunder/ncmx/internal/formatter"
	"github.com/desertthunder/ncmx/internal/player"
	"github.com/desertthunder/ncmx/internal/shared"
)

// Controller is the part of [player.Coordinator] the control server needs.
type Controller interface {
	Snapshot() player.Snapshot
	Do(ctx context.Context, cmd player.Command) error
}

// ControlHandler exposes a [Controller] over HTTP:
//
//	GET  /snapshot             current playback state as JSON
//	POST /command/{name}?arg=  run a command, respond with the resulting snapshot
type ControlHandler struct {
	player  Controller
	timeout time.Duration
}

// NewControlHandler creates a handler that gives each command timeout to complete.
func NewControlHandler(p Controller, timeout time.Duration) *ControlHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ControlHandler{player: p, timeout: timeout}
}

const (
	snapshotRoute = "GET /snapshot"
	commandRoute  = "POST /command/{name}"
)

// Routes returns the HTTP routes this handler serves.
func (h *ControlHandler) Routes() []string {
	return []string{snapshotRoute, commandRoute}
}

func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case snapshotRoute:
		writeJSON(w, http.StatusOK, NewSnapshotView(h.player.Snapshot()))
	case commandRoute:
		h.command(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *ControlHandler) command(w http.ResponseWriter, r *http.Request) {
	cmd, err := player.ParseCommand(r.PathValue("name"), r.URL.Query().Get("arg"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	if err := h.player.Do(ctx, cmd); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NewSnapshotView(h.player.Snapshot()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidIndex), errors.Is(err, shared.ErrEmptyPlaylist):
		return http.StatusConflict
	case errors.Is(err, shared.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// SnapshotView is the JSON form of a [player.Snapshot].
type SnapshotView struct {
	Status     string     `json:"status"`
	Mode       string     `json:"mode"`
	Playing    bool       `json:"playing"`
	Playlist   string     `json:"playlist,omitempty"`
	Index      int        `json:"index"`
	Track      *TrackView `json:"track,omitempty"`
	Position   string     `json:"position"`
	Duration   string     `json:"duration"`
	Volume     int        `json:"volume"`
	Muted      bool       `json:"muted"`
	LyricIndex int        `json:"lyric_index"`
	Lyric      string     `json:"lyric,omitempty"`
	Query      string     `json:"query,omitempty"`
	Matches    []int      `json:"matches,omitempty"`
	Error      string     `json:"error,omitempty"`
	Generation uint64     `json:"generation"`
}

// TrackView is the JSON form of the current track.
type TrackView struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
}

// NewSnapshotView converts s for serialization.
func NewSnapshotView(s player.Snapshot) SnapshotView {
	v := SnapshotView{
		Status:     s.Status.String(),
		Mode:       s.Mode.String(),
		Playing:    s.IsPlaying,
		Index:      s.Index,
		Position:   formatter.FormatDuration(s.Position),
		Duration:   formatter.FormatDuration(s.Duration),
		Volume:     s.Volume,
		Muted:      s.Muted,
		LyricIndex: s.LyricIndex,
		Lyric:      s.ActiveLyric.Text,
		Query:      s.Query,
		Matches:    s.SearchMatches,
		Generation: s.Generation,
	}
	if s.Playlist != nil {
		v.Playlist = s.Playlist.Name()
	}
	if s.HasTrack() {
		t := s.CurrentTrack
		v.Track = &TrackView{ID: t.ID, Title: t.Title, Artists: t.Artists, Album: t.Album}
	}
	if s.LastError != nil {
		v.Error = s.LastError.Error()
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
