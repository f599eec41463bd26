package player

// KeepAlive is a silent audio stream played in lockstep with the main track.
// It keeps the host from treating a backgrounded session as idle.
type KeepAlive interface {
	Play() error
	Pause() error
	Close() error
}

// NopKeepAlive is used on hosts that do not throttle background audio.
type NopKeepAlive struct{}

func (NopKeepAlive) Play() error  { return nil }
func (NopKeepAlive) Pause() error { return nil }
func (NopKeepAlive) Close() error { return nil }

// SetVisibility reports whether the host is hidden.
//
// Hiding while playing arms a watchdog that re-issues play whenever the player reports it
// stopped. Returning to the foreground disarms it.
func (e *Engine) SetVisibility(hidden bool) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.hidden = hidden
	if hidden {
		if e.state == StatePlaying {
			e.background = true
			e.watchdog.Start()
			e.logger.Debug("background playback armed")
		}
	} else {
		e.background = false
		e.watchdog.Stop()
	}
	e.mu.Unlock()

	e.notify()
}

// checkBackground runs on the loop, posted by the watchdog interval.
func (e *Engine) checkBackground() {
	e.mu.Lock()
	if !e.background || !e.isReady || e.current == nil || e.closed || e.state == StateLoading {
		e.mu.Unlock()
		return
	}
	h := e.handle
	e.mu.Unlock()

	st, err := h.PlayerState()
	if err != nil {
		e.logger.Debug("failed to read player state", "error", err)
		return
	}
	switch st {
	case PlayerPlaying, PlayerBuffering, PlayerEnded:
		return
	}

	e.logger.Info("resuming background playback", "player_state", st)
	if err := h.Play(); err != nil {
		e.logger.Warn("failed to resume playback", "error", err)
	}
	e.keepAliveCall("play", e.keepAlive.Play)
}
