package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/shared"
)

// FakeBackend is an in-memory media backend with a controllable clock and end-of-stream flag.
type FakeBackend struct {
	mu       sync.Mutex
	url      string
	opened   []string
	playing  bool
	stopped  bool
	position time.Duration
	eos      bool
	volume   int
	seeks    []time.Duration
	gate     chan struct{}
	openErr  map[string]error
	errs     chan error
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{volume: -1, errs: make(chan error, 8), openErr: make(map[string]error)}
}

// Hold makes subsequent Open calls block until the returned release func is called or their context ends.
func (f *FakeBackend) Hold() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// FailOpen makes Open(url) return err.
func (f *FakeBackend) FailOpen(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr[url] = err
}

func (f *FakeBackend) Open(ctx context.Context, url string) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.openErr[url]; err != nil {
		return err
	}
	f.url = url
	f.opened = append(f.opened, url)
	f.playing = false
	f.stopped = false
	f.position = 0
	f.eos = false
	return nil
}

func (f *FakeBackend) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.url == "" {
		return fmt.Errorf("%w: nothing loaded", shared.ErrBackend)
	}
	f.playing = true
	return nil
}

func (f *FakeBackend) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	return nil
}

func (f *FakeBackend) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = ""
	f.playing = false
	f.stopped = true
	f.position = 0
	return nil
}

func (f *FakeBackend) Seek(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, d)
	f.position = d
	f.eos = false
	return nil
}

func (f *FakeBackend) SetVolume(v int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
	return nil
}

func (f *FakeBackend) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *FakeBackend) EndOfStream() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eos
}

func (f *FakeBackend) Errors() <-chan error { return f.errs }

// SetPosition moves the fake clock.
func (f *FakeBackend) SetPosition(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = d
}

// Finish marks the current stream as ended.
func (f *FakeBackend) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eos = true
	f.playing = false
}

// Emit delivers an asynchronous backend error.
func (f *FakeBackend) Emit(err error) {
	f.errs <- err
}

// Opened returns every URL successfully opened, in order.
func (f *FakeBackend) Opened() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

func (f *FakeBackend) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *FakeBackend) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *FakeBackend) Volume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *FakeBackend) Seeks() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.seeks...)
}

// FakeSource resolves stream URLs as "fake://<id>" with scripted failures.
type FakeSource struct {
	mu          sync.Mutex
	unavailable map[string]bool
	transient   map[string]int
	lyrics      map[string]*models.LyricTimeline
	resolves    map[string]int
}

func NewFakeSource() *FakeSource {
	return &FakeSource{
		unavailable: make(map[string]bool),
		transient:   make(map[string]int),
		lyrics:      make(map[string]*models.LyricTimeline),
		resolves:    make(map[string]int),
	}
}

// StreamURL is the URL FakeSource resolves id to.
func StreamURL(id string) string { return "fake://" + id }

// Unavailable makes every resolution of id fail with [shared.ErrStreamUnavailable].
func (s *FakeSource) Unavailable(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.unavailable[id] = true
	}
}

// FailTransient makes the next n resolutions of id fail with [shared.ErrAPIRequest].
func (s *FakeSource) FailTransient(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transient[id] = n
}

func (s *FakeSource) SetLyrics(id string, tl *models.LyricTimeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lyrics[id] = tl
}

// Resolves returns how many times id was resolved.
func (s *FakeSource) Resolves(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolves[id]
}

func (s *FakeSource) ResolveStreamURL(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolves[id]++
	if s.unavailable[id] {
		return "", fmt.Errorf("%w: %s", shared.ErrStreamUnavailable, id)
	}
	if s.transient[id] > 0 {
		s.transient[id]--
		return "", fmt.Errorf("%w: status 502", shared.ErrAPIRequest)
	}
	return StreamURL(id), nil
}

func (s *FakeSource) FetchLyrics(ctx context.Context, id string) (*models.LyricTimeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tl, ok := s.lyrics[id]; ok {
		return tl, nil
	}
	return models.EmptyTimeline(), nil
}
