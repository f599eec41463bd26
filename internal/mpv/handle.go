package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/player"
)

// errorCodeUnavailable is reported to [player.Callbacks.OnError] when mpv cannot open a
// track. It matches the IFrame "video not found" code.
const errorCodeUnavailable = 100

// observed properties, keyed by observe_property ID
var observed = []struct {
	id   int
	name string
}{
	{1, "pause"},
	{2, "idle-active"},
}

// Handle is a [player.Handle] backed by a running mpv instance.
type Handle struct {
	client *client
	events net.Conn
	cb     player.Callbacks
	logger *log.Logger
	urlFor func(id string) string

	mu      sync.Mutex
	paused  bool
	idle    bool
	started bool
	ended   bool

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

func newHandle(c *client, events net.Conn, cb player.Callbacks, urlFor func(string) string, logger *log.Logger) *Handle {
	return &Handle{
		client: c,
		events: events,
		cb:     cb,
		logger: logger,
		urlFor: urlFor,
		idle:   true,
		closed: make(chan struct{}),
	}
}

// listen subscribes to property changes and starts the event loop, which reports
// readiness before anything else.
func (h *Handle) listen() error {
	for _, prop := range observed {
		if err := writeCommand(h.events, ipcCommand{Command: []any{"observe_property", prop.id, prop.name}}); err != nil {
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	h.wg.Add(1)
	go h.readLoop()
	return nil
}

func (h *Handle) readLoop() {
	defer h.wg.Done()

	if h.cb.OnReady != nil {
		h.cb.OnReady()
	}

	scanner := bufio.NewScanner(h.events)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil || msg.Event == "" {
			continue
		}
		h.dispatch(msg)
	}

	select {
	case <-h.closed:
	default:
		h.logger.Warn("mpv event connection lost", "error", scanner.Err())
	}
}

// dispatch maps an mpv event to IFrame state codes.
func (h *Handle) dispatch(msg ipcMessage) {
	var (
		report  bool
		code    player.PlayerState
		failure bool
	)

	h.mu.Lock()
	switch msg.Event {
	case "property-change":
		v, _ := msg.Data.(bool)
		switch msg.Name {
		case "pause":
			h.paused = v
			if h.started {
				report, code = true, h.stateLocked()
			}
		case "idle-active":
			h.idle = v
		}
	case "start-file":
		h.started, h.ended, h.idle = false, false, false
		report, code = true, player.PlayerBuffering
	case "playback-restart":
		h.started = true
		if !h.paused {
			report, code = true, player.PlayerPlaying
		}
	case "end-file":
		h.started = false
		switch msg.Reason {
		case "eof":
			h.ended = true
			report, code = true, player.PlayerEnded
		case "error":
			failure = true
		}
	}
	h.mu.Unlock()

	switch {
	case failure:
		h.logger.Warn("mpv failed to play file", "reason", msg.FileError)
		if h.cb.OnError != nil {
			h.cb.OnError(errorCodeUnavailable)
		}
	case report:
		if h.cb.OnStateChange != nil {
			h.cb.OnStateChange(code)
		}
	}
}

func (h *Handle) stateLocked() player.PlayerState {
	switch {
	case h.ended:
		return player.PlayerEnded
	case h.idle:
		return player.PlayerUnstarted
	case !h.started:
		return player.PlayerBuffering
	case h.paused:
		return player.PlayerPaused
	default:
		return player.PlayerPlaying
	}
}

func (h *Handle) LoadVideoByID(id string) error {
	if id == "" {
		return errors.New("mpv: empty video id")
	}
	_, err := h.client.command("loadfile", h.urlFor(id), "replace")
	return err
}

func (h *Handle) Play() error {
	_, err := h.client.command("set_property", "pause", false)
	return err
}

func (h *Handle) Pause() error {
	_, err := h.client.command("set_property", "pause", true)
	return err
}

// SeekTo jumps to an absolute position. mpv always seeks ahead, so allowSeekAhead is ignored.
func (h *Handle) SeekTo(seconds float64, _ bool) error {
	_, err := h.client.command("seek", seconds, "absolute")
	return err
}

func (h *Handle) SetVolume(percent int) error {
	_, err := h.client.command("set_property", "volume", percent)
	return err
}

func (h *Handle) CurrentTime() (float64, error) {
	return h.client.float("time-pos")
}

func (h *Handle) Duration() (float64, error) {
	return h.client.float("duration")
}

// PlayerState is derived from observed events and never touches the socket.
func (h *Handle) PlayerState() (player.PlayerState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stateLocked(), nil
}

// Destroy stops playback and closes the event connection. The mpv process keeps running
// until [SDK.Close].
func (h *Handle) Destroy() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.closed)
		if _, cerr := h.client.command("stop"); cerr != nil {
			err = cerr
		}
		h.events.Close()
		h.wg.Wait()
	})
	return err
}

var _ player.Handle = (*Handle)(nil)
