package player

import "github.com/desertthunder/ytplay/internal/models"

// Artwork is an image advertised to the OS media session.
type Artwork struct {
	Src   string
	Sizes string
	Type  string
}

// Metadata describes the current track to the OS media session.
type Metadata struct {
	Title   string
	Artist  string
	Album   string
	Artwork []Artwork
}

// Actions are the media session controls. Each calls back into the engine's public operations.
type Actions struct {
	Play     func()
	Pause    func()
	Next     func()
	Previous func()
	SeekTo   func(seconds float64)
}

// PositionState is the media session position projection.
type PositionState struct {
	Duration     float64
	PlaybackRate float64
	Position     float64
}

// MediaSession is the OS "now playing" surface. The projection is one-way:
// the engine never reads state back from it.
type MediaSession interface {
	SetMetadata(Metadata)
	SetActionHandlers(Actions)
	SetPositionState(PositionState)
	SetPlaybackState(state string)
}

type nopMediaSession struct{}

func (nopMediaSession) SetMetadata(Metadata)           {}
func (nopMediaSession) SetActionHandlers(Actions)      {}
func (nopMediaSession) SetPositionState(PositionState) {}
func (nopMediaSession) SetPlaybackState(string)        {}

// metadataFor builds the media session metadata for track.
func metadataFor(track models.Track) Metadata {
	md := Metadata{Title: track.Title, Artist: track.Artist}
	if track.Thumbnail != "" {
		md.Artwork = []Artwork{{Src: track.Thumbnail, Sizes: "480x360", Type: "image/jpeg"}}
	}
	return md
}

// actions binds the media session controls to e.
func (e *Engine) actions() Actions {
	return Actions{
		Play:     e.Play,
		Pause:    e.Pause,
		Next:     e.Next,
		Previous: e.Previous,
		SeekTo:   e.Seek,
	}
}

// publishTrack pushes metadata and action handlers for a new current track.
func (e *Engine) publishTrack(track models.Track) {
	e.media.SetMetadata(metadataFor(track))
	e.media.SetActionHandlers(e.actions())
}
