package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/samber/lo"
)

// Snapshot is a copy of the engine's session state.
type Snapshot struct {
	State        State          `json:"state"`
	CurrentTrack *models.Track  `json:"currentTrack"`
	IsPlaying    bool           `json:"isPlaying"`
	IsLoading    bool           `json:"isLoading"`
	CurrentTime  float64        `json:"currentTime"`
	Duration     float64        `json:"duration"`
	Volume       int            `json:"volume"`
	Queue        []models.Track `json:"queue"`
	QueueIndex   int            `json:"queueIndex"`
	Hidden       bool           `json:"hidden"`
	Ready        bool           `json:"ready"`
}

// Engine is the playback engine. The zero value is not usable; see [New].
type Engine struct {
	sdk       SDK
	media     MediaSession
	keepAlive KeepAlive
	emitter   Emitter
	logger    *log.Logger
	elementID string

	mu          sync.Mutex
	state       State
	queue       Queue
	current     *models.Track
	position    float64
	duration    float64
	volume      int
	hidden      bool
	background  bool // keep playing while hidden
	handle      Handle
	isReady     bool
	pending     bool   // a load is waiting on readiness
	gen         uint64 // incremented for every track start
	advancedGen uint64 // last generation that auto-advanced
	failures    int    // consecutive playback failures
	seeking     int    // seeks posted but not yet issued
	closed      bool

	ready         chan struct{}
	readyOnce     sync.Once
	constructOnce sync.Once
	closeOnce     sync.Once

	tracker  *interval
	watchdog *interval

	mailMu  sync.Mutex
	mailbox []func()
	wake    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup

	subs subscribers
}

// New creates an engine and starts waiting on the SDK's readiness.
func New(opts Options) (*Engine, error) {
	if opts.SDK == nil {
		return nil, fmt.Errorf("%w: player SDK is required", shared.ErrInvalidArgument)
	}
	opts = opts.withDefaults()

	e := &Engine{
		sdk:       opts.SDK,
		media:     opts.MediaSession,
		keepAlive: opts.KeepAlive,
		emitter:   opts.Emitter,
		logger:    opts.Logger,
		elementID: opts.ElementID,
		state:     StateIdle,
		queue:     NewQueue(nil, 0),
		volume:    opts.Volume.MustGet(),
		ready:     make(chan struct{}),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	e.tracker = newInterval(opts.PollInterval, func() { e.post(e.pollPosition) })
	e.watchdog = newInterval(opts.WatchdogInterval, func() { e.post(e.checkBackground) })

	e.wg.Add(2)
	go e.run()
	go e.awaitSDK()

	return e, nil
}

// Ready is closed once the player handle reports ready.
func (e *Engine) Ready() <-chan struct{} { return e.ready }

// WaitReady blocks until the handle is ready, ctx is done or the engine closes.
func (e *Engine) WaitReady(ctx context.Context) error {
	select {
	case <-e.ready:
		return nil
	case <-e.done:
		return shared.ErrClosed
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", shared.ErrNotReady, ctx.Err())
	}
}

// Snapshot returns a copy of the current session.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var current *models.Track
	if e.current != nil {
		t := *e.current
		current = &t
	}

	return Snapshot{
		State:        e.state,
		CurrentTrack: current,
		IsPlaying:    e.state == StatePlaying,
		IsLoading:    e.state == StateLoading,
		CurrentTime:  e.position,
		Duration:     e.duration,
		Volume:       e.volume,
		Queue:        e.queue.Tracks(),
		QueueIndex:   e.queue.Cursor(),
		Hidden:       e.hidden,
		Ready:        e.isReady,
	}
}

// Subscribe registers for snapshots after every change.
func (e *Engine) Subscribe() *Subscription {
	sub := e.subs.add()

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		e.subs.remove(sub)
	}
	return sub
}

// Unsubscribe cancels sub.
func (e *Engine) Unsubscribe(sub *Subscription) {
	e.subs.remove(sub)
}

// PlaySong makes track current and starts loading it.
//
// queue replaces the playing context. Without a queue the context is the track alone;
// a queue that does not contain the track gets it prepended. An empty track ID is ignored.
func (e *Engine) PlaySong(track models.Track, queue ...models.Track) {
	if track.ID == "" {
		e.logger.Debug("ignoring play request without a track id")
		return
	}

	tracks := queue
	if len(tracks) == 0 {
		tracks = []models.Track{track}
	}

	q := NewQueue(tracks, 0)
	if i := q.IndexOf(track.ID); i >= 0 {
		q.Seek(i)
	} else {
		q = NewQueue(append([]models.Track{track}, tracks...), 0)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.failures = 0
	e.startLocked(q)
	e.mu.Unlock()

	e.notify()
}

// SetQueue replaces the queue and plays tracks[start]. An out of range start plays the first track.
func (e *Engine) SetQueue(tracks []models.Track, start int) {
	if len(tracks) == 0 {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.failures = 0
	e.startLocked(NewQueue(tracks, start))
	e.mu.Unlock()

	e.notify()
}

// Next plays the following track, wrapping to the first.
func (e *Engine) Next() {
	e.mu.Lock()
	if e.closed || e.queue.Len() == 0 {
		e.mu.Unlock()
		return
	}
	q := e.queue
	q.Seek(q.NextIndex())
	e.failures = 0
	e.startLocked(q)
	e.mu.Unlock()

	e.notify()
}

// Previous restarts the current track when it has played past [RestartThreshold],
// otherwise plays the preceding track, wrapping to the last.
func (e *Engine) Previous() {
	e.mu.Lock()
	if e.closed || e.queue.Len() == 0 {
		e.mu.Unlock()
		return
	}

	if e.current != nil && e.position > RestartThreshold {
		e.seekLocked(0)
		e.mu.Unlock()
		e.notify()
		return
	}

	q := e.queue
	q.Seek(q.PrevIndex())
	e.failures = 0
	e.startLocked(q)
	e.mu.Unlock()

	e.notify()
}

// ShuffleQueue permutes the queue. The current track stays current.
func (e *Engine) ShuffleQueue() {
	e.mu.Lock()
	if e.closed || e.queue.Len() == 0 {
		e.mu.Unlock()
		return
	}
	e.queue.Shuffle()
	e.mu.Unlock()

	e.notify()
}

// TogglePlayPause pauses when playing and plays otherwise. No-op without a current track.
func (e *Engine) TogglePlayPause() {
	e.mu.Lock()
	if !e.activeLocked() {
		e.mu.Unlock()
		return
	}
	if e.state == StatePlaying {
		e.pauseLocked()
	} else {
		e.playLocked()
	}
	e.mu.Unlock()
}

// Play resumes the current track.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.activeLocked() {
		e.playLocked()
	}
	e.mu.Unlock()
}

// Pause pauses the current track. An explicit pause also cancels background playback.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.activeLocked() {
		e.pauseLocked()
	}
	e.mu.Unlock()
}

// Seek moves playback to seconds. The tracked position changes before the player is asked to seek.
func (e *Engine) Seek(seconds float64) {
	e.mu.Lock()
	if !e.activeLocked() {
		e.mu.Unlock()
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.seekLocked(seconds)
	e.mu.Unlock()

	e.notify()
}

// SetVolume stores percent, clamped to 0-100, and forwards it to the player.
func (e *Engine) SetVolume(percent int) {
	percent = lo.Clamp(percent, 0, 100)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.volume = percent
	e.mu.Unlock()

	e.post(func() {
		if h := e.readyHandle(); h != nil {
			if err := h.SetVolume(percent); err != nil {
				e.logger.Warn("failed to set volume", "volume", percent, "error", err)
			}
		}
	})
	e.notify()
}

// Close stops both timers, destroys the handle and releases the keep-alive.
// Calls after the first return nil.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.background = false
		e.tracker.Stop()
		e.watchdog.Stop()
		e.mu.Unlock()

		close(e.done)
		e.wg.Wait()

		e.mu.Lock()
		h := e.handle
		e.handle = nil
		e.isReady = false
		e.mu.Unlock()

		if h != nil {
			if derr := h.Destroy(); derr != nil {
				e.logger.Error("failed to destroy player", "error", derr)
				err = errors.Join(err, derr)
			}
		}
		if kerr := e.keepAlive.Close(); kerr != nil {
			e.logger.Error("failed to release keep-alive", "error", kerr)
			err = errors.Join(err, kerr)
		}

		e.subs.closeAll()
		e.logger.Info("engine closed")
	})
	return err
}

func (e *Engine) activeLocked() bool {
	return !e.closed && e.current != nil
}

// startLocked makes the cursor track of q current and posts its load.
func (e *Engine) startLocked(q Queue) {
	track, ok := q.Current()
	if !ok {
		return
	}

	e.queue = q
	e.current = &track
	e.setStateLocked(StateLoading)
	e.position = 0
	e.duration = float64(track.Seconds())
	e.gen++
	gen := e.gen

	e.logger.Debug("starting track", "id", track.ID, "title", track.Title, "index", q.Cursor(), "generation", gen)

	e.post(func() {
		e.publishTrack(track)
		e.media.SetPlaybackState(StateLoading.playbackState())
		e.issueLoad(gen)
	})
}

// setStateLocked moves the machine and keeps the tracker running only while playing.
func (e *Engine) setStateLocked(s State) {
	if e.state != s {
		e.logger.Debug("state change", "from", e.state, "to", s)
	}
	e.state = s
	if s == StatePlaying {
		e.tracker.Start()
	} else {
		e.tracker.Stop()
	}
}

func (e *Engine) playLocked() {
	if e.hidden {
		e.background = true
		e.watchdog.Start()
	}
	e.post(func() {
		if h := e.readyHandle(); h != nil {
			if err := h.Play(); err != nil {
				e.logger.Warn("failed to play", "error", err)
			}
			e.keepAliveCall("play", e.keepAlive.Play)
		}
	})
}

func (e *Engine) pauseLocked() {
	e.background = false
	e.watchdog.Stop()
	e.post(func() {
		if h := e.readyHandle(); h != nil {
			if err := h.Pause(); err != nil {
				e.logger.Warn("failed to pause", "error", err)
			}
			e.keepAliveCall("pause", e.keepAlive.Pause)
		}
	})
}

func (e *Engine) seekLocked(seconds float64) {
	e.position = seconds
	e.seeking++
	e.post(func() {
		if h := e.readyHandle(); h != nil {
			if err := h.SeekTo(seconds, true); err != nil {
				e.logger.Warn("seek failed", "seconds", seconds, "error", err)
			}
		}

		e.mu.Lock()
		e.seeking--
		ps := PositionState{Duration: e.duration, PlaybackRate: 1, Position: e.position}
		e.mu.Unlock()
		e.media.SetPositionState(ps)
	})
}

// readyHandle returns the handle once it has reported ready.
func (e *Engine) readyHandle() Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isReady || e.closed {
		return nil
	}
	return e.handle
}

func (e *Engine) keepAliveCall(op string, fn func() error) {
	if err := fn(); err != nil {
		e.logger.Warn("keep-alive call failed", "op", op, "error", err)
	}
}

// notify broadcasts a snapshot. Must not be called with e.mu held.
func (e *Engine) notify() {
	e.subs.broadcast(e.Snapshot())
}
