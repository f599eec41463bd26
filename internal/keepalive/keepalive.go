// Package keepalive plays an inaudible stream alongside the main player so the host
// audio stack keeps the session active while the app is in the background.
package keepalive

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/ytplay/internal/player"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

const sampleRate = beep.SampleRate(44100)

// sink is the audio output. The default writes to the system speaker.
type sink interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Clear()
	Close()
}

type speakerSink struct{}

func (speakerSink) Init(sr beep.SampleRate, bufferSize int) error { return speaker.Init(sr, bufferSize) }
func (speakerSink) Play(s beep.Streamer)                          { speaker.Play(s) }
func (speakerSink) Lock()                                         { speaker.Lock() }
func (speakerSink) Unlock()                                       { speaker.Unlock() }
func (speakerSink) Clear()                                        { speaker.Clear() }
func (speakerSink) Close()                                        { speaker.Close() }

// Silence is a [player.KeepAlive] that streams digital silence.
// The speaker is opened lazily on the first Play.
type Silence struct {
	mu          sync.Mutex
	out         sink
	ctrl        *beep.Ctrl
	initialized bool
	closed      bool
}

func NewSilence() *Silence {
	return &Silence{out: speakerSink{}}
}

func (s *Silence) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return shared.ErrClosed
	}

	if !s.initialized {
		if err := s.out.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("%w: open speaker: %v", shared.ErrPlayerFailure, err)
		}
		s.initialized = true
		s.ctrl = &beep.Ctrl{Streamer: beep.Silence(-1), Paused: false}
		s.out.Play(s.ctrl)
		return nil
	}

	s.out.Lock()
	s.ctrl.Paused = false
	s.out.Unlock()
	return nil
}

func (s *Silence) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || s.closed {
		return nil
	}

	s.out.Lock()
	s.ctrl.Paused = true
	s.out.Unlock()
	return nil
}

// Paused reports whether the stream is currently held. An unopened stream counts as paused.
func (s *Silence) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return true
	}
	s.out.Lock()
	defer s.out.Unlock()
	return s.ctrl.Paused
}

// Close releases the speaker. Later calls are no-ops.
func (s *Silence) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.initialized {
		s.out.Clear()
		s.out.Close()
	}
	return nil
}

// New returns the keep-alive named by kind: "beep" or "none".
func New(kind string) (player.KeepAlive, error) {
	switch kind {
	case "beep":
		return NewSilence(), nil
	case "", "none":
		return player.NopKeepAlive{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown keepalive %q", shared.ErrInvalidConfig, kind)
	}
}

var _ player.KeepAlive = (*Silence)(nil)
