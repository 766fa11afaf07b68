// Package backend implements [player.Backend] on top of an mpv child process driven over its JSON IPC socket.
package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ncmx/internal/player"
	"github.com/desertthunder/ncmx/internal/shared"
)

var _ player.Backend = (*MPV)(nil)

const (
	dialAttempts  = 50
	dialInterval  = 100 * time.Millisecond
	replyTimeout  = 5 * time.Second
	timePosObsID  = 1
	eofReachedObs = 2
)

// MPVOptions configures an [MPV] backend.
type MPVOptions struct {
	Path   string // mpv binary, default "mpv"
	Socket string // IPC socket path
	Logger *log.Logger
}

// MPV drives an mpv process. It is safe for concurrent use.
type MPV struct {
	opts   MPVOptions
	logger *log.Logger
	cmd    *exec.Cmd

	conn    net.Conn
	writeMu sync.Mutex
	mu      sync.Mutex
	nextID  int
	pending map[int]chan ipcReply

	position atomic.Int64 // nanoseconds
	eof      atomic.Bool
	loading  atomic.Bool // between loadfile and start-file, events belong to the replaced stream
	errs     chan error
	done     chan struct{}
	closed   atomic.Bool
}

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

type ipcReply struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// ipcMessage is any line mpv writes: a reply (request_id set) or an event.
type ipcMessage struct {
	RequestID *int            `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

// NewMPV returns an unstarted backend.
func NewMPV(opts MPVOptions) *MPV {
	if opts.Path == "" {
		opts.Path = "mpv"
	}
	if opts.Socket == "" {
		opts.Socket = fmt.Sprintf("%s/ncmx-mpv-%d.sock", os.TempDir(), os.Getpid())
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &MPV{
		opts:    opts,
		logger:  shared.WithLogger(logger, "component", "mpv"),
		pending: make(map[int]chan ipcReply),
		errs:    make(chan error, 8),
		done:    make(chan struct{}),
	}
}

// Start launches mpv in idle mode and connects to its IPC socket.
func (m *MPV) Start(ctx context.Context) error {
	_ = os.Remove(m.opts.Socket)

	m.cmd = exec.CommandContext(ctx, m.opts.Path,
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--pause",
		"--input-ipc-server="+m.opts.Socket,
	)
	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %w", shared.ErrBackend, m.opts.Path, err)
	}
	m.logger.Info("mpv started", "pid", m.cmd.Process.Pid, "socket", m.opts.Socket)

	var conn net.Conn
	var err error
	for range dialAttempts {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "unix", m.opts.Socket)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = m.cmd.Process.Kill()
			return ctx.Err()
		case <-time.After(dialInterval):
		}
	}
	if err != nil {
		_ = m.cmd.Process.Kill()
		return fmt.Errorf("%w: connect %s: %w", shared.ErrBackend, m.opts.Socket, err)
	}

	return m.Attach(conn)
}

// Attach takes over an established IPC connection and subscribes to position and end-of-file updates.
func (m *MPV) Attach(conn net.Conn) error {
	m.conn = conn
	go m.readLoop()

	if _, err := m.command("observe_property", timePosObsID, "time-pos"); err != nil {
		return err
	}
	if _, err := m.command("observe_property", eofReachedObs, "eof-reached"); err != nil {
		return err
	}
	return nil
}

// Close quits mpv and releases the connection.
func (m *MPV) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if m.conn != nil {
		_ = m.send("quit")
		_ = m.conn.Close()
	}
	if m.cmd != nil && m.cmd.Process != nil {
		done := make(chan struct{})
		go func() {
			_ = m.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = m.cmd.Process.Kill()
		}
	}
	_ = os.Remove(m.opts.Socket)
	return nil
}

func (m *MPV) Open(ctx context.Context, url string) error {
	m.loading.Store(true)
	m.eof.Store(false)
	m.position.Store(0)
	if _, err := m.commandContext(ctx, "set_property", "pause", true); err != nil {
		return err
	}
	if _, err := m.commandContext(ctx, "loadfile", url, "replace"); err != nil {
		return err
	}
	return nil
}

func (m *MPV) Play() error {
	_, err := m.command("set_property", "pause", false)
	return err
}

func (m *MPV) Pause() error {
	_, err := m.command("set_property", "pause", true)
	return err
}

func (m *MPV) Stop() error {
	m.eof.Store(false)
	m.position.Store(0)
	_, err := m.command("stop")
	return err
}

func (m *MPV) Seek(d time.Duration) error {
	m.eof.Store(false)
	m.position.Store(int64(d))
	_, err := m.command("seek", d.Seconds(), "absolute")
	return err
}

func (m *MPV) SetVolume(v int) error {
	_, err := m.command("set_property", "volume", v)
	return err
}

func (m *MPV) Position() time.Duration {
	return time.Duration(m.position.Load())
}

func (m *MPV) EndOfStream() bool {
	return m.eof.Load()
}

func (m *MPV) Errors() <-chan error {
	return m.errs
}

func (m *MPV) command(args ...any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	return m.commandContext(ctx, args...)
}

// commandContext sends a command and waits for mpv's reply.
func (m *MPV) commandContext(ctx context.Context, args ...any) (json.RawMessage, error) {
	if m.conn == nil {
		return nil, fmt.Errorf("%w: mpv not started", shared.ErrBackend)
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	reply := make(chan ipcReply, 1)
	m.pending[id] = reply
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}()

	if err := m.write(ipcRequest{Command: args, RequestID: id}); err != nil {
		return nil, err
	}

	select {
	case r := <-reply:
		if r.Error != "success" {
			return nil, fmt.Errorf("%w: %v: %s", shared.ErrBackend, args[0], r.Error)
		}
		return r.Data, nil
	case <-m.done:
		return nil, fmt.Errorf("%w: mpv connection closed", shared.ErrBackend)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w: no reply to %v", shared.ErrBackend, shared.ErrTimeout, args[0])
		}
		return nil, fmt.Errorf("%w: %v: %w", shared.ErrBackend, args[0], ctx.Err())
	}
}

// send writes a command without waiting for the reply.
func (m *MPV) send(args ...any) error {
	return m.write(ipcRequest{Command: args})
}

func (m *MPV) write(req ipcRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encode command: %w", shared.ErrBackend, err)
	}
	data = append(data, '\n')

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if _, err := m.conn.Write(data); err != nil {
		return fmt.Errorf("%w: write: %w", shared.ErrBackend, err)
	}
	return nil
}

func (m *MPV) readLoop() {
	defer close(m.done)

	scanner := bufio.NewScanner(m.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			m.logger.Debug("unparsable ipc line", "error", err)
			continue
		}
		m.handle(msg)
	}

	if err := scanner.Err(); err != nil && !m.closed.Load() && !errors.Is(err, net.ErrClosed) {
		m.emit(fmt.Errorf("%w: ipc read: %w", shared.ErrBackend, err))
	}
}

func (m *MPV) handle(msg ipcMessage) {
	if msg.RequestID != nil && msg.Event == "" {
		m.mu.Lock()
		reply, ok := m.pending[*msg.RequestID]
		m.mu.Unlock()
		if ok {
			reply <- ipcReply{Error: msg.Error, Data: msg.Data}
		}
		return
	}

	switch msg.Event {
	case "property-change":
		switch msg.ID {
		case timePosObsID:
			var secs float64
			if json.Unmarshal(msg.Data, &secs) == nil && !m.loading.Load() {
				m.position.Store(int64(secs * float64(time.Second)))
			}
		case eofReachedObs:
			var reached bool
			if json.Unmarshal(msg.Data, &reached) == nil && reached && !m.loading.Load() {
				m.eof.Store(true)
			}
		}
	case "start-file", "file-loaded":
		// start-file follows the replaced stream's end-file, so later events belong to the new one.
		m.loading.Store(false)
	case "end-file":
		if m.loading.Load() {
			return
		}
		switch msg.Reason {
		case "eof":
			m.eof.Store(true)
		case "error":
			m.emit(fmt.Errorf("%w: playback error: %s", shared.ErrBackend, msg.FileError))
		}
	}
}

func (m *MPV) emit(err error) {
	select {
	case m.errs <- err:
	default:
		m.logger.Warn("dropping backend error", "error", err)
	}
}
