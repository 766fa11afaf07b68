package models

// Playlist is an ordered, identified list of tracks.
type Playlist struct {
	id     string
	name   string
	tracks []Track
}

// PlaylistSummary describes a playlist without its tracks.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Owner       string `json:"owner,omitempty"`
}

// NewPlaylist builds a Playlist from a copy of tracks.
func NewPlaylist(id, name string, tracks []Track) *Playlist {
	return &Playlist{
		id:     id,
		name:   name,
		tracks: append([]Track(nil), tracks...),
	}
}

func (p *Playlist) ID() string   { return p.id }
func (p *Playlist) Name() string { return p.name }

// Len returns the number of tracks; a nil playlist has none.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.tracks)
}

// Track returns the track at index i.
func (p *Playlist) Track(i int) (Track, bool) {
	if i < 0 || i >= p.Len() {
		return Track{}, false
	}
	return p.tracks[i], true
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []Track {
	if p == nil {
		return nil
	}
	return append([]Track(nil), p.tracks...)
}

// IndexOf returns the first index holding a track with the given id, or -1.
func (p *Playlist) IndexOf(trackID string) int {
	for i := 0; i < p.Len(); i++ {
		if p.tracks[i].ID == trackID {
			return i
		}
	}
	return -1
}

// Summary returns the playlist's listing metadata.
func (p *Playlist) Summary() PlaylistSummary {
	return PlaylistSummary{ID: p.id, Name: p.name, TrackCount: p.Len()}
}
