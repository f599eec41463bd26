package player

// pollPosition reads the handle's position and duration while playing.
//
// Runs on the loop, posted by the tracker interval. Stale ticks that land after the
// state left Playing do nothing.
func (e *Engine) pollPosition() {
	e.mu.Lock()
	if e.state != StatePlaying || !e.isReady || e.seeking > 0 || e.closed {
		e.mu.Unlock()
		return
	}
	h, gen := e.handle, e.gen
	e.mu.Unlock()

	pos, err := h.CurrentTime()
	if err != nil {
		e.logger.Debug("failed to read position", "error", err)
		return
	}
	dur, err := h.Duration()
	if err != nil {
		e.logger.Debug("failed to read duration", "error", err)
		dur = 0
	}

	e.mu.Lock()
	if gen != e.gen || e.state != StatePlaying || e.seeking > 0 {
		e.mu.Unlock()
		return
	}
	if pos > e.position {
		e.position = pos
	}
	if dur > 0 {
		e.duration = dur
	}
	ps := PositionState{Duration: e.duration, PlaybackRate: 1, Position: e.position}
	e.mu.Unlock()

	e.media.SetPositionState(ps)
	e.notify()
}
