package mediasession

import (
	"testing"

	"github.com/desertthunder/ytplay/internal/player"
)

func TestSession(t *testing.T) {
	t.Run("Stores Projections", func(t *testing.T) {
		s := New()
		if s.PlaybackState() != "none" {
			t.Errorf("expected initial state 'none', got %q", s.PlaybackState())
		}

		s.SetMetadata(player.Metadata{Title: "Song", Artist: "Band"})
		s.SetPositionState(player.PositionState{Duration: 200, PlaybackRate: 1, Position: 12})
		s.SetPlaybackState("playing")

		if s.Metadata().Title != "Song" {
			t.Errorf("expected title 'Song', got %q", s.Metadata().Title)
		}
		if s.Position().Position != 12 {
			t.Errorf("expected position 12, got %v", s.Position().Position)
		}
		if s.PlaybackState() != "playing" {
			t.Errorf("expected 'playing', got %q", s.PlaybackState())
		}
	})

	t.Run("Actions Without Handlers", func(t *testing.T) {
		s := New()
		if s.Play() || s.Pause() || s.Next() || s.Previous() || s.SeekTo(3) {
			t.Error("expected actions without handlers to report false")
		}
	})

	t.Run("Toggle", func(t *testing.T) {
		var calls []string
		s := New()
		s.SetActionHandlers(player.Actions{
			Play:  func() { calls = append(calls, "play") },
			Pause: func() { calls = append(calls, "pause") },
		})

		s.SetPlaybackState("paused")
		s.Toggle()
		s.SetPlaybackState("playing")
		s.Toggle()

		if len(calls) != 2 || calls[0] != "play" || calls[1] != "pause" {
			t.Errorf("unexpected calls %v", calls)
		}
	})

	t.Run("SeekTo", func(t *testing.T) {
		var got float64
		s := New()
		s.SetActionHandlers(player.Actions{SeekTo: func(sec float64) { got = sec }})

		if !s.SeekTo(42) || got != 42 {
			t.Errorf("expected seek to 42, got %v", got)
		}
	})
}
