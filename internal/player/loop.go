package player

import "github.com/desertthunder/ytplay/internal/models"

// post queues fn for the event loop. It never blocks, so SDK callbacks may call it
// from any goroutine, including the loop itself.
func (e *Engine) post(fn func()) {
	e.mailMu.Lock()
	e.mailbox = append(e.mailbox, fn)
	e.mailMu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// run executes posted work in order until the engine closes.
func (e *Engine) run() {
	defer e.wg.Done()

	for {
		select {
		case <-e.done:
			return
		case <-e.wake:
		}

		for {
			e.mailMu.Lock()
			batch := e.mailbox
			e.mailbox = nil
			e.mailMu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				select {
				case <-e.done:
					return
				default:
				}
				fn()
			}
		}
	}
}

// awaitSDK waits on the SDK readiness future and constructs the handle on the loop.
func (e *Engine) awaitSDK() {
	defer e.wg.Done()

	select {
	case <-e.done:
		return
	case <-e.sdk.Ready():
	}
	e.post(e.construct)
}

// construct creates the single player handle. Later calls are no-ops.
func (e *Engine) construct() {
	e.constructOnce.Do(func() {
		e.mu.Lock()
		vol, closed := e.volume, e.closed
		e.mu.Unlock()
		if closed {
			return
		}

		h, err := e.sdk.Construct(e.elementID, Config{Volume: vol, Autoplay: true}, Callbacks{
			OnReady:       func() { e.post(e.handleReady) },
			OnStateChange: func(s PlayerState) { e.post(func() { e.handleStateChange(s) }) },
			OnError:       func(code int) { e.post(func() { e.handleError(code) }) },
		})
		if err != nil {
			e.logger.Error("failed to construct player", "element", e.elementID, "error", err)
			return
		}

		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			if derr := h.Destroy(); derr != nil {
				e.logger.Error("failed to destroy player", "error", derr)
			}
			return
		}
		e.handle = h
		e.mu.Unlock()

		e.logger.Info("player constructed", "element", e.elementID)
	})
}

// handleReady resolves the readiness future and issues any load that was waiting on it.
func (e *Engine) handleReady() {
	e.mu.Lock()
	if e.handle == nil || e.isReady || e.closed {
		e.mu.Unlock()
		return
	}
	e.isReady = true
	h, vol := e.handle, e.volume
	pending, gen := e.pending, e.gen
	e.pending = false
	e.mu.Unlock()

	e.readyOnce.Do(func() { close(e.ready) })
	e.logger.Info("player ready")

	if err := h.SetVolume(vol); err != nil {
		e.logger.Warn("failed to set volume", "volume", vol, "error", err)
	}
	if pending {
		e.issueLoad(gen)
	}
	e.notify()
}

// issueLoad loads and plays the current track if gen is still the latest start.
func (e *Engine) issueLoad(gen uint64) {
	e.mu.Lock()
	if e.closed || e.current == nil {
		e.mu.Unlock()
		return
	}
	if gen != e.gen {
		e.mu.Unlock()
		e.logger.Debug("load superseded", "generation", gen)
		return
	}
	if !e.isReady {
		if e.pending {
			e.logger.Info("pending load superseded", "id", e.current.ID)
		}
		e.pending = true
		id := e.current.ID
		e.mu.Unlock()
		e.logger.Debug("player not ready, load deferred", "id", id)
		return
	}
	h, track := e.handle, *e.current
	e.mu.Unlock()

	if err := h.LoadVideoByID(track.ID); err != nil {
		e.logger.Warn("failed to load track", "id", track.ID, "error", err)
		e.playbackFailed(gen)
		return
	}
	if err := h.Play(); err != nil {
		e.logger.Warn("failed to play", "id", track.ID, "error", err)
	}
	e.keepAliveCall("play", e.keepAlive.Play)

	e.emitStarted(track)
}

// handleStateChange drives the state machine from player events.
func (e *Engine) handleStateChange(code PlayerState) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	next, ok := e.state.transition(code)
	if !ok {
		state := e.state
		e.mu.Unlock()
		e.logger.Debug("player event ignored", "event", code, "state", state)
		return
	}

	e.setStateLocked(next)
	if next == StatePlaying {
		e.failures = 0
		if e.hidden {
			e.background = true
			e.watchdog.Start()
		}
	}
	gen := e.gen
	e.mu.Unlock()

	e.media.SetPlaybackState(next.playbackState())
	if next == StateEnded {
		e.advance(gen)
		return
	}
	e.notify()
}

// handleError treats a player error like the end of the track.
func (e *Engine) handleError(code int) {
	e.mu.Lock()
	if e.closed || e.current == nil {
		e.mu.Unlock()
		return
	}
	gen, id := e.gen, e.current.ID
	e.mu.Unlock()

	e.logger.Warn("player error, skipping track", "code", code, "id", id)
	e.playbackFailed(gen)
}

// playbackFailed advances past a failed track. When every queued track has failed in a row
// the engine goes idle instead of cycling forever. A lone track gets one retry first.
func (e *Engine) playbackFailed(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.advancedGen == gen {
		e.mu.Unlock()
		return
	}

	e.failures++
	if e.failures >= max(2, e.queue.Len()) {
		e.advancedGen = gen
		e.failures = 0
		e.current = nil
		e.queue.Clear()
		e.position, e.duration = 0, 0
		e.setStateLocked(StateIdle)
		e.mu.Unlock()

		e.logger.Warn("every queued track failed, playback stopped")
		e.media.SetPlaybackState(StateIdle.playbackState())
		e.notify()
		return
	}

	e.setStateLocked(StateEnded)
	e.mu.Unlock()

	e.advance(gen)
}

// advance moves past the track started by gen. Each generation advances at most once.
func (e *Engine) advance(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.advancedGen == gen || e.queue.Len() == 0 {
		e.mu.Unlock()
		return
	}
	e.advancedGen = gen

	q := e.queue
	q.Seek(q.NextIndex())
	e.startLocked(q)
	e.mu.Unlock()

	e.notify()
}

// emitStarted notifies the emitter. A panicking listener cannot take down the loop.
func (e *Engine) emitStarted(track models.Track) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("track started listener panicked", "panic", r)
		}
	}()
	e.emitter.TrackStarted(track)
}
