package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/shkh/lastfm-go/lastfm"
)

// LastFMScrobbler publishes "now playing" to Last.fm when a track starts.
type LastFMScrobbler struct {
	nowPlaying func(lastfm.P) error
}

// NewLastFMScrobbler returns a scrobbler authenticated with an existing session key.
func NewLastFMScrobbler(apiKey, apiSecret, sessionKey string) (*LastFMScrobbler, error) {
	if apiKey == "" || apiSecret == "" || sessionKey == "" {
		return nil, fmt.Errorf("%w: lastfm api_key, api_secret and session_key", shared.ErrMissingCredentials)
	}

	api := lastfm.New(apiKey, apiSecret)
	api.SetSession(sessionKey)
	return &LastFMScrobbler{nowPlaying: func(p lastfm.P) error {
		_, err := api.Track.UpdateNowPlaying(p)
		return err
	}}, nil
}

// RecordPlay sends track.updateNowPlaying. The context is not honoured by the Last.fm client.
func (s *LastFMScrobbler) RecordPlay(_ context.Context, track models.Track) error {
	if track.Artist == "" || track.Title == "" {
		return fmt.Errorf("%w: lastfm needs artist and title", shared.ErrInvalidArgument)
	}

	params := lastfm.P{
		"artist": track.Artist,
		"track":  track.Title,
	}
	if secs := track.Seconds(); secs > 0 {
		params["duration"] = secs
	}

	if err := s.nowPlaying(params); err != nil {
		return fmt.Errorf("update now playing: %w", err)
	}
	return nil
}
