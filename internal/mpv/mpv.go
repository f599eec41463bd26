// Package mpv implements [player.SDK] on top of mpv's JSON-IPC protocol.
//
// [SDK.Start] launches an idle, audio-only mpv process asynchronously. The SDK becomes
// ready once the IPC socket accepts connections. Handles load tracks through mpv's
// youtube-dl hook and translate mpv events into IFrame player state codes.
package mpv

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/player"
	"github.com/desertthunder/ytplay/internal/shared"
)

const (
	DefaultPath      = "mpv"
	DefaultURLFormat = "ytdl://%s"

	socketWaitRetries = 20
	socketWaitDelay   = 250 * time.Millisecond
)

// Options configures an [SDK].
type Options struct {
	Path       string // mpv binary
	SocketPath string // defaults to a random socket in [os.TempDir]
	URLFormat  string // fmt pattern applied to the video ID
	Args       []string
	Logger     *log.Logger
}

// SDK owns one mpv process.
type SDK struct {
	path      string
	socket    string
	urlFormat string
	args      []string
	logger    *log.Logger

	ready     chan struct{}
	readyOnce sync.Once

	mu     sync.Mutex
	cmd    *exec.Cmd
	exited chan struct{}
	stop   chan struct{}
	closed bool
}

// NewSDK prepares an SDK. Nothing is started until [SDK.Start].
func NewSDK(opts Options) (*SDK, error) {
	s := &SDK{
		path:      opts.Path,
		socket:    opts.SocketPath,
		urlFormat: opts.URLFormat,
		args:      opts.Args,
		logger:    opts.Logger,
		ready:     make(chan struct{}),
		stop:      make(chan struct{}),
	}
	if s.path == "" {
		s.path = DefaultPath
	}
	if s.urlFormat == "" {
		s.urlFormat = DefaultURLFormat
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.socket == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return nil, fmt.Errorf("generate socket name: %w", err)
		}
		s.socket = filepath.Join(os.TempDir(), fmt.Sprintf("ytplay-%x.sock", randomBytes))
	}
	return s, nil
}

// SocketPath is the IPC socket mpv listens on.
func (s *SDK) SocketPath() string { return s.socket }

// Start launches mpv and returns without waiting for the socket.
func (s *SDK) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return shared.ErrClosed
	}
	if s.cmd != nil {
		return nil
	}

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--no-video",
		"--force-window=no",
		fmt.Sprintf("--input-ipc-server=%s", s.socket),
	}
	args = append(args, s.args...)

	cmd := exec.Command(s.path, args...)
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start mpv: %v", shared.ErrPlayerFailure, err)
	}

	s.cmd = cmd
	s.exited = make(chan struct{})
	go func(exited chan struct{}) {
		err := cmd.Wait()
		close(exited)
		s.logger.Debug("mpv exited", "error", err)
	}(s.exited)

	go s.awaitSocket()

	s.logger.Info("mpv started", "pid", cmd.Process.Pid, "socket", s.socket)
	return nil
}

// awaitSocket polls until the IPC socket is accepting connections, then resolves readiness.
func (s *SDK) awaitSocket() {
	s.mu.Lock()
	exited := s.exited
	s.mu.Unlock()

	for range socketWaitRetries {
		select {
		case <-s.stop:
			return
		case <-exited:
			s.logger.Error("mpv exited before socket was ready")
			return
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", s.socket)
		if err == nil {
			conn.Close()
			s.readyOnce.Do(func() { close(s.ready) })
			s.logger.Debug("mpv socket ready", "socket", s.socket)
			return
		}
	}
	s.logger.Error("mpv socket never became ready", "socket", s.socket, "attempts", socketWaitRetries)
}

func (s *SDK) Ready() <-chan struct{} { return s.ready }

// Construct opens the event connection and returns a handle. elementID only labels logs.
func (s *SDK) Construct(elementID string, cfg player.Config, cb player.Callbacks) (player.Handle, error) {
	select {
	case <-s.ready:
	default:
		return nil, shared.ErrNotReady
	}

	events, err := net.Dial("unix", s.socket)
	if err != nil {
		return nil, fmt.Errorf("%w: event connection: %v", shared.ErrPlayerFailure, err)
	}

	c := newClient(s.socket)
	urlFor := func(id string) string { return fmt.Sprintf(s.urlFormat, id) }
	h := newHandle(c, events, cb, urlFor, s.logger.With("element", elementID))

	if _, err := c.command("set_property", "volume", cfg.Volume); err != nil {
		s.logger.Warn("failed to set initial volume", "volume", cfg.Volume, "error", err)
	}
	if _, err := c.command("set_property", "pause", !cfg.Autoplay); err != nil {
		s.logger.Warn("failed to set autoplay", "error", err)
	}

	if err := h.listen(); err != nil {
		events.Close()
		return nil, fmt.Errorf("%w: %v", shared.ErrPlayerFailure, err)
	}
	return h, nil
}

// Close terminates mpv and removes its socket.
func (s *SDK) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stop)
	cmd, exited := s.cmd, s.exited
	s.mu.Unlock()

	if cmd == nil {
		return nil
	}

	if _, err := newClient(s.socket).command("quit"); err != nil {
		s.logger.Debug("mpv quit failed, killing", "error", err)
		_ = killProcess(cmd)
	}

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		_ = killProcess(cmd)
		<-exited
	}

	if err := os.Remove(s.socket); err != nil && !os.IsNotExist(err) {
		s.logger.Debug("failed to remove socket", "socket", s.socket, "error", err)
	}
	return nil
}

var _ player.SDK = (*SDK)(nil)
