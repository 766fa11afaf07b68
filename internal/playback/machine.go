package playback

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/shared"
)

const maxVolume = 100

// Options configures a new [Machine].
type Options struct {
	Mode   Mode
	Volume int
	Rand   *rand.Rand // shuffle source; seeded from the runtime when nil
}

// Machine holds the playback state and applies transitions. It is not safe for concurrent use.
type Machine struct {
	playlist *models.Playlist
	index    int
	mode     Mode
	status   Status
	held     bool // user asked for pause; loads finish Paused while set
	position time.Duration
	volume   int
	muted    bool
	shuffle  ShuffleOrder
	rng      *rand.Rand
}

// NewMachine returns an Idle machine with no playlist bound.
func NewMachine(opts Options) *Machine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	mode := opts.Mode
	if !mode.Valid() {
		mode = Single
	}
	return &Machine{
		index:  -1,
		mode:   mode,
		status: Idle,
		volume: clampVolume(opts.Volume),
		rng:    rng,
	}
}

func (m *Machine) Playlist() *models.Playlist { return m.playlist }
func (m *Machine) Index() int                 { return m.index }
func (m *Machine) Mode() Mode                 { return m.mode }
func (m *Machine) Status() Status             { return m.status }
func (m *Machine) Position() time.Duration    { return m.position }
func (m *Machine) Volume() int                { return m.volume }
func (m *Machine) Muted() bool                { return m.muted }
func (m *Machine) Held() bool                 { return m.held }
func (m *Machine) Shuffle() ShuffleOrder      { return m.shuffle }

// CurrentTrack returns the track at the current index.
func (m *Machine) CurrentTrack() (models.Track, bool) {
	if m.index < 0 {
		return models.Track{}, false
	}
	return m.playlist.Track(m.index)
}

// Duration returns the current track's duration, or zero without a current track.
func (m *Machine) Duration() time.Duration {
	t, ok := m.CurrentTrack()
	if !ok {
		return 0
	}
	return t.Duration
}

// Active reports whether a track is loaded and playing or paused.
func (m *Machine) Active() bool {
	return m.status == Playing || m.status == Paused
}

// Load binds pl and starts a transition to track start.
//
// An empty playlist is bound, the machine goes Idle, and [shared.ErrEmptyPlaylist] is returned.
// An out-of-range start returns [shared.ErrInvalidIndex] and leaves the state untouched.
func (m *Machine) Load(pl *models.Playlist, start int) error {
	if pl.Len() == 0 {
		m.bind(pl, -1)
		m.stop()
		return fmt.Errorf("%w: cannot load %q", shared.ErrEmptyPlaylist, playlistName(pl))
	}
	if start < 0 || start >= pl.Len() {
		return fmt.Errorf("%w: %d not in [0, %d)", shared.ErrInvalidIndex, start, pl.Len())
	}

	m.bind(pl, start)
	m.begin(start)
	return nil
}

// Loaded completes an in-flight transition.
func (m *Machine) Loaded() {
	if m.status != Transitioning {
		return
	}
	if m.held {
		m.status = Paused
	} else {
		m.status = Playing
	}
}

// Play resumes playback. It reports whether the status moved from Paused to Playing.
//
// From Transitioning it only clears the pause hold so the pending load finishes Playing.
func (m *Machine) Play() bool {
	switch m.status {
	case Paused:
		m.held = false
		m.status = Playing
		return true
	case Transitioning:
		m.held = false
	}
	return false
}

// Pause pauses playback. It reports whether the status moved from Playing to Paused.
func (m *Machine) Pause() bool {
	switch m.status {
	case Playing:
		m.held = true
		m.status = Paused
		return true
	case Transitioning:
		m.held = true
	}
	return false
}

// Next moves forward per the advance rule. Without a successor the machine goes Idle and ok is false.
func (m *Machine) Next() (int, bool) {
	return m.step(Forward)
}

// Prev moves backward per the advance rule. Without a predecessor the machine goes Idle and ok is false.
func (m *Machine) Prev() (int, bool) {
	return m.step(Backward)
}

// TrackEnded handles end of stream: SingleRepeat reissues the same index, every other mode advances like [Machine.Next].
func (m *Machine) TrackEnded() (int, bool) {
	if m.index < 0 {
		return -1, false
	}
	if m.mode == SingleRepeat {
		m.begin(m.index)
		return m.index, true
	}
	return m.step(Forward)
}

// Stop unloads the current track and goes Idle. The playlist stays bound.
func (m *Machine) Stop() {
	m.stop()
}

// SetMode switches the playback mode and reports whether it changed.
//
// Entering Shuffle regenerates the shuffle order with the current track pinned, so the playing track is unchanged.
func (m *Machine) SetMode(mode Mode) bool {
	if !mode.Valid() || mode == m.mode {
		return false
	}
	m.mode = mode
	if mode == Shuffle {
		m.reshuffle()
	}
	return true
}

// CycleMode advances to the next mode in the UI cycle and returns it.
func (m *Machine) CycleMode() Mode {
	m.SetMode(m.mode.Next())
	return m.mode
}

// Seek sets the position, clamped to [0, duration]. It is a no-op unless Playing or Paused.
func (m *Machine) Seek(target time.Duration) (time.Duration, bool) {
	if !m.Active() {
		return m.position, false
	}
	m.position = clampPosition(target, m.Duration())
	return m.position, true
}

// SetPosition records a sampled backend position, clamped to [0, duration].
func (m *Machine) SetPosition(pos time.Duration) {
	if !m.Active() {
		return
	}
	m.position = clampPosition(pos, m.Duration())
}

// Rebind swaps in a new version of the bound playlist.
//
// The current track keeps playing when its id is still present. Otherwise index 0 is loaded and needsLoad is true,
// or the machine goes Idle when pl is empty.
func (m *Machine) Rebind(pl *models.Playlist) (needsLoad bool, err error) {
	if pl.Len() == 0 {
		m.bind(pl, -1)
		m.stop()
		return false, fmt.Errorf("%w: cannot bind %q", shared.ErrEmptyPlaylist, playlistName(pl))
	}

	cur, ok := m.CurrentTrack()
	if !ok {
		m.bind(pl, -1)
		return false, nil
	}

	if idx := pl.IndexOf(cur.ID); idx >= 0 {
		m.bind(pl, idx)
		m.index = idx
		return false, nil
	}

	m.bind(pl, 0)
	m.begin(0)
	return true, nil
}

// SetVolume sets the volume, clamped to 0-100, and reports whether it changed.
func (m *Machine) SetVolume(v int) bool {
	v = clampVolume(v)
	if v == m.volume {
		return false
	}
	m.volume = v
	return true
}

// AdjustVolume changes the volume by delta and returns the new value.
func (m *Machine) AdjustVolume(delta int) int {
	m.SetVolume(m.volume + delta)
	return m.volume
}

// ToggleMute flips the muted flag without touching the stored volume.
func (m *Machine) ToggleMute() bool {
	m.muted = !m.muted
	return m.muted
}

// EffectiveVolume is the level the backend should output: zero while muted.
func (m *Machine) EffectiveVolume() int {
	if m.muted {
		return 0
	}
	return m.volume
}

func (m *Machine) step(dir Direction) (int, bool) {
	if m.index < 0 {
		return -1, false
	}
	next, ok := Advance(m.mode, dir, m.index, m.playlist.Len(), m.shuffle)
	if !ok {
		m.stop()
		return -1, false
	}
	m.begin(next)
	return next, true
}

// bind sets the playlist, regenerating the shuffle order when its identity changes.
func (m *Machine) bind(pl *models.Playlist, pinned int) {
	changed := pl != m.playlist
	m.playlist = pl
	if changed && m.mode == Shuffle {
		m.shuffle = NewShuffleOrder(pl.Len(), pinned, m.rng)
	}
}

func (m *Machine) reshuffle() {
	m.shuffle = NewShuffleOrder(m.playlist.Len(), m.index, m.rng)
}

func (m *Machine) begin(index int) {
	m.index = index
	m.position = 0
	m.status = Transitioning
}

func (m *Machine) stop() {
	m.index = -1
	m.position = 0
	m.status = Idle
}

func clampVolume(v int) int {
	return max(0, min(maxVolume, v))
}

func clampPosition(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}

func playlistName(pl *models.Playlist) string {
	if pl == nil {
		return "<nil>"
	}
	return pl.Name()
}
