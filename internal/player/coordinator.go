package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ncmx/internal/lyrics"
	"github.com/desertthunder/ncmx/internal/playback"
	"github.com/desertthunder/ncmx/internal/search"
	"github.com/desertthunder/ncmx/internal/shared"
)

const (
	defaultPollInterval  = 250 * time.Millisecond
	defaultSeekTolerance = 1500 * time.Millisecond
	commandBuffer        = 64
)

// Options configures a [Coordinator]. Zero values select defaults.
type Options struct {
	Mode          playback.Mode
	Volume        int
	PollInterval  time.Duration
	SeekTolerance time.Duration
	StreamRetries int
	RetryBackoff  time.Duration
	SearchArtists bool
	Rand          *rand.Rand
	Logger        *log.Logger
}

// Coordinator is the single owner of playback state.
//
// All state lives on the goroutine started by [Coordinator.Run]; other goroutines interact through
// [Coordinator.Do], [Coordinator.Submit], [Coordinator.Snapshot] and [Coordinator.Updates].
type Coordinator struct {
	backend Backend
	source  Source
	opts    Options
	logger  *log.Logger

	commands chan Command
	events   chan any
	updates  chan struct{}
	current  atomic.Pointer[Snapshot]
	done     chan struct{}
	started  atomic.Bool
	openMu   sync.Mutex

	// owned by the run goroutine
	machine    *playback.Machine
	lyrics     *lyrics.Synchronizer
	search     *search.Index
	ctx        context.Context
	loadCancel context.CancelFunc
	gen        uint64
	endGen     uint64
	pending    []Command
	lastErr    error
	failures   int
	seeked     bool
	ticker     *time.Ticker
	ticking    bool
}

// backendFailed carries an asynchronous error from [Backend.Errors].
type backendFailed struct{ err error }

// New creates a Coordinator. Call [Coordinator.Run] to start processing commands.
func New(backend Backend, source Source, opts Options) *Coordinator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.SeekTolerance <= 0 {
		opts.SeekTolerance = defaultSeekTolerance
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Coordinator{
		backend:  backend,
		source:   source,
		opts:     opts,
		logger:   shared.WithLogger(logger, "component", "player"),
		commands: make(chan Command, commandBuffer),
		events:   make(chan any, commandBuffer),
		updates:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		machine:  playback.NewMachine(playback.Options{Mode: opts.Mode, Volume: opts.Volume, Rand: opts.Rand}),
		lyrics:   lyrics.NewSynchronizer(nil),
		search:   search.New(opts.SearchArtists),
	}
	c.current.Store(c.snapshot())
	return c
}

// Snapshot returns the latest committed state.
func (c *Coordinator) Snapshot() Snapshot {
	return *c.current.Load()
}

// Updates signals after each commit. Signals coalesce: a receiver should read [Coordinator.Snapshot] when woken.
func (c *Coordinator) Updates() <-chan struct{} {
	return c.updates
}

// Done is closed when Run returns.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Do runs cmd and waits for its result.
//
// Commands that act on the stream while a track is loading are deferred until the load completes;
// Do then returns nil once the command is queued.
func (c *Coordinator) Do(ctx context.Context, cmd Command) error {
	cmd.reply = make(chan error, 1)
	if err := c.enqueue(ctx, cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		return shared.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues cmd without waiting for it to run. Failures surface as [Snapshot.LastError].
func (c *Coordinator) Submit(cmd Command) {
	_ = c.enqueue(context.Background(), cmd)
}

func (c *Coordinator) enqueue(ctx context.Context, cmd Command) error {
	cmd.id = shared.GenerateID()
	select {
	case <-c.done:
		return shared.ErrClosed
	default:
	}
	select {
	case c.commands <- cmd:
		return nil
	case <-c.done:
		return shared.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes commands and events until ctx is cancelled. It may only be called once.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: coordinator already running", shared.ErrInvalidInput)
	}
	defer close(c.done)

	c.ctx = ctx
	c.ticker = time.NewTicker(c.opts.PollInterval)
	c.ticker.Stop()
	defer c.ticker.Stop()

	go c.forwardBackendErrors(ctx)

	c.logger.Info("coordinator started", "poll_interval", c.opts.PollInterval, "mode", c.machine.Mode())
	c.applyVolume()
	c.publish()

	for {
		var tick <-chan time.Time
		if c.ticking {
			tick = c.ticker.C
		}

		var reply chan error
		var err error
		select {
		case <-ctx.Done():
			c.cancelLoad()
			c.logger.Info("coordinator stopped")
			return nil
		case cmd := <-c.commands:
			reply = cmd.reply
			err = c.dispatch(cmd)
		case ev := <-c.events:
			c.handleEvent(ev)
		case <-tick:
			c.poll()
		}

		c.syncTicker()
		c.publish()
		if reply != nil {
			reply <- err
		}
	}
}

// send delivers an event to the run goroutine unless ctx ends first.
func (c *Coordinator) send(ctx context.Context, ev any) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Coordinator) forwardBackendErrors(ctx context.Context) {
	errs := c.backend.Errors()
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			c.send(ctx, backendFailed{err: err})
		case <-ctx.Done():
			return
		}
	}
}

// dispatch applies cmd, deferring stream commands during a transition.
func (c *Coordinator) dispatch(cmd Command) error {
	if cmd.Kind.needsBackend() && c.machine.Status() == playback.Transitioning {
		c.logger.Debug("command deferred", "id", cmd.id, "kind", cmd.Kind, "generation", c.gen)
		cmd.reply = nil
		c.pending = append(c.pending, cmd)
		return nil
	}

	c.logger.Debug("command", "id", cmd.id, "kind", cmd.Kind)
	err := c.apply(cmd)
	if err != nil {
		c.logger.Warn("command failed", "id", cmd.id, "kind", cmd.Kind, "error", err)
		c.lastErr = err
	}
	return err
}

func (c *Coordinator) apply(cmd Command) error {
	m := c.machine

	switch cmd.Kind {
	case KindLoad:
		return c.loadPlaylist(cmd)
	case KindRebind:
		needsLoad, err := m.Rebind(cmd.Playlist)
		c.search.Bind(m.Playlist())
		if err != nil {
			c.halt()
			return err
		}
		if needsLoad {
			c.startLoad()
		}
	case KindPlay:
		c.resume()
	case KindPause:
		c.pause()
	case KindTogglePlay:
		switch {
		case m.Status() == playback.Playing:
			c.pause()
		case m.Status() == playback.Transitioning && !m.Held():
			c.pause()
		default:
			c.resume()
		}
	case KindNext:
		c.failures = 0
		c.lastErr = nil
		c.advance(m.Next())
	case KindPrev:
		c.failures = 0
		c.lastErr = nil
		c.advance(m.Prev())
	case KindStop:
		c.halt()
	case KindSeek:
		c.seek(cmd.Offset)
	case KindSeekRelative:
		c.seek(m.Position() + cmd.Offset)
	case KindSeekToLyric:
		target, err := c.lyrics.SeekTargetFor(cmd.Index)
		if err != nil {
			return err
		}
		c.seek(target)
	case KindSetMode:
		if !cmd.Mode.Valid() {
			return fmt.Errorf("%w: playback mode %d", shared.ErrInvalidArgument, int(cmd.Mode))
		}
		if m.SetMode(cmd.Mode) {
			c.logger.Info("mode changed", "mode", m.Mode())
		}
	case KindCycleMode:
		c.logger.Info("mode changed", "mode", m.CycleMode())
	case KindSetVolume:
		if m.SetVolume(cmd.Value) {
			c.applyVolume()
		}
	case KindAdjustVolume:
		m.AdjustVolume(cmd.Value)
		c.applyVolume()
	case KindToggleMute:
		m.ToggleMute()
		c.applyVolume()
	case KindSetQuery:
		c.search.SetQuery(cmd.Query)
	default:
		return fmt.Errorf("%w: command %v", shared.ErrNotImplemented, cmd.Kind)
	}
	return nil
}

func (c *Coordinator) loadPlaylist(cmd Command) error {
	m := c.machine
	prev := m.Playlist()
	err := m.Load(cmd.Playlist, cmd.Index)
	if m.Playlist() != prev {
		c.search.Bind(m.Playlist())
	}
	if errors.Is(err, shared.ErrEmptyPlaylist) {
		c.halt()
		return err
	}
	if err != nil {
		return err
	}
	if cmd.Autoplay {
		m.Play()
	}
	c.failures = 0
	c.lastErr = nil
	c.startLoad()
	return nil
}

func (c *Coordinator) resume() {
	if c.machine.Play() {
		c.backendCall("play", c.backend.Play())
	}
}

func (c *Coordinator) pause() {
	if c.machine.Pause() {
		c.backendCall("pause", c.backend.Pause())
	}
}

// advance starts loading next, or stops playback when there is none.
func (c *Coordinator) advance(next int, ok bool) {
	if !ok {
		c.logger.Info("end of playlist", "mode", c.machine.Mode())
		c.halt()
		return
	}
	c.startLoad()
}

func (c *Coordinator) seek(target time.Duration) {
	pos, ok := c.machine.Seek(target)
	if !ok {
		return
	}
	c.seeked = true
	c.backendCall("seek", c.backend.Seek(pos))
}

// startLoad supersedes any in-flight load and loads the machine's current track.
func (c *Coordinator) startLoad() {
	c.cancelLoad()
	c.gen++
	c.seeked = false
	c.lyrics.Reset(nil)

	track, ok := c.machine.CurrentTrack()
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.loadCancel = cancel
	c.logger.Info("loading track", "track", track.ID, "title", track.Title, "index", c.machine.Index(), "generation", c.gen)
	go c.load(ctx, c.gen, c.machine.Index(), track)
}

// cancelLoad abandons the in-flight load and any commands waiting on it.
func (c *Coordinator) cancelLoad() {
	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
	}
	if len(c.pending) > 0 {
		c.logger.Debug("dropping deferred commands", "count", len(c.pending), "generation", c.gen)
		c.pending = nil
	}
}

// halt stops playback and unloads the backend. The playlist stays bound.
func (c *Coordinator) halt() {
	c.cancelLoad()
	c.gen++
	c.seeked = false
	c.machine.Stop()
	c.lyrics.Reset(nil)
	c.backendCall("stop", c.backend.Stop())
}

func (c *Coordinator) applyVolume() {
	c.backendCall("volume", c.backend.SetVolume(c.machine.EffectiveVolume()))
}

func (c *Coordinator) backendCall(op string, err error) {
	if err == nil {
		return
	}
	err = fmt.Errorf("%w: %s: %w", shared.ErrBackend, op, err)
	c.logger.Error("backend call failed", "op", op, "error", err)
	c.lastErr = err
}

func (c *Coordinator) handleEvent(ev any) {
	switch ev := ev.(type) {
	case loadResult:
		c.finishLoad(ev)
	case backendFailed:
		err := fmt.Errorf("%w: %w", shared.ErrBackend, ev.err)
		c.logger.Error("backend error", "error", err, "status", c.machine.Status())
		if c.machine.Active() {
			c.skipFailed(err)
			return
		}
		c.lastErr = err
	}
}

// finishLoad commits a load completion, discarding stale generations.
func (c *Coordinator) finishLoad(res loadResult) {
	if res.gen != c.gen || c.machine.Status() != playback.Transitioning {
		c.logger.Debug("stale load discarded", "track", res.trackID, "generation", res.gen, "current", c.gen)
		return
	}
	c.loadCancel = nil

	if res.err != nil {
		c.logger.Warn("track failed to load", "track", res.trackID, "index", res.index, "error", res.err)
		c.skipFailed(res.err)
		return
	}

	c.failures = 0
	c.lyrics.Reset(res.timeline)
	c.machine.Loaded()
	c.applyVolume()
	if c.machine.Status() == playback.Playing {
		c.backendCall("play", c.backend.Play())
	}
	c.logger.Info("track ready", "track", res.trackID, "status", c.machine.Status(), "lyrics", res.timeline.Len())

	pending := c.pending
	c.pending = nil
	for _, cmd := range pending {
		c.dispatch(cmd)
	}
}

// skipFailed records err and moves past the failing track.
//
// Single and SingleRepeat stop rather than retry the same track, and a run of failures as long as the
// playlist stops playback.
func (c *Coordinator) skipFailed(err error) {
	c.lastErr = err
	c.failures++

	mode := c.machine.Mode()
	if mode == playback.Single || mode == playback.SingleRepeat {
		c.logger.Warn("stopping after failed track", "mode", mode)
		c.halt()
		return
	}
	if c.failures >= c.machine.Playlist().Len() {
		c.logger.Warn("every track failed, stopping", "failures", c.failures)
		c.halt()
		return
	}
	c.advance(c.machine.Next())
}
