// Package mediasession projects the engine's "now playing" state onto the operating system.
//
// [Session] stores what the engine publishes. On Linux, [Serve] exposes it over MPRIS so
// desktop media keys and widgets can control playback. Elsewhere [Serve] is a no-op.
package mediasession

import (
	"sync"

	"github.com/desertthunder/ytplay/internal/player"
)

// Session is a [player.MediaSession] that remembers the last value of each projection.
type Session struct {
	mu       sync.RWMutex
	metadata player.Metadata
	actions  player.Actions
	position player.PositionState
	state    string
}

func New() *Session {
	return &Session{state: "none"}
}

func (s *Session) SetMetadata(md player.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = md
}

func (s *Session) SetActionHandlers(a player.Actions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = a
}

func (s *Session) SetPositionState(p player.PositionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = p
}

func (s *Session) SetPlaybackState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Session) Metadata() player.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

func (s *Session) Actions() player.Actions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actions
}

func (s *Session) Position() player.PositionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// PlaybackState is "playing", "paused" or "none".
func (s *Session) PlaybackState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// invoke runs an action handler if one is registered.
func (s *Session) invoke(pick func(player.Actions) func()) bool {
	fn := pick(s.Actions())
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Play resumes playback through the registered handler.
func (s *Session) Play() bool { return s.invoke(func(a player.Actions) func() { return a.Play }) }

// Pause pauses through the registered handler.
func (s *Session) Pause() bool { return s.invoke(func(a player.Actions) func() { return a.Pause }) }

func (s *Session) Next() bool { return s.invoke(func(a player.Actions) func() { return a.Next }) }

func (s *Session) Previous() bool {
	return s.invoke(func(a player.Actions) func() { return a.Previous })
}

// Toggle plays when paused and pauses when playing.
func (s *Session) Toggle() bool {
	if s.PlaybackState() == "playing" {
		return s.Pause()
	}
	return s.Play()
}

// SeekTo jumps to an absolute position in seconds.
func (s *Session) SeekTo(seconds float64) bool {
	fn := s.Actions().SeekTo
	if fn == nil {
		return false
	}
	fn(seconds)
	return true
}

var _ player.MediaSession = (*Session)(nil)
