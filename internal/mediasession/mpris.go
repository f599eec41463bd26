//go:build linux

package mediasession

import (
	"fmt"
	"hash/fnv"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

const microsecondsPerSecond = 1_000_000

// Adapter publishes a [Session] on the session bus.
type Adapter struct {
	server *server.Server
}

// Serve registers name on D-Bus and starts answering MPRIS requests in the background.
func Serve(session *Session, name string) (*Adapter, error) {
	srv := server.NewServer(name, &rootAdapter{identity: name}, &playerAdapter{session: session})

	go func() {
		_ = srv.Listen()
	}()

	return &Adapter{server: srv}, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	identity string
}

func (r *rootAdapter) Raise() error { return nil }

func (r *rootAdapter) Quit() error { return nil }

func (r *rootAdapter) CanQuit() (bool, error) { return false, nil }

func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return r.identity, nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) { return []string{}, nil }

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) { return []string{}, nil }

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter over a Session.
type playerAdapter struct {
	session *Session
}

func (p *playerAdapter) Next() error {
	p.session.Next()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.session.Previous()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.session.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.session.Toggle()
	return nil
}

// Stop pauses; the engine has no separate stopped state.
func (p *playerAdapter) Stop() error {
	p.session.Pause()
	return nil
}

func (p *playerAdapter) Play() error {
	p.session.Play()
	return nil
}

// Seek moves relative to the current position.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	pos := p.session.Position().Position + float64(offset)/microsecondsPerSecond
	p.session.SeekTo(max(0, pos))
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.session.SeekTo(float64(position) / microsecondsPerSecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.session.PlaybackState() {
	case "playing":
		return types.PlaybackStatusPlaying, nil
	case "paused":
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	md := p.session.Metadata()
	if md.Title == "" {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(md.Artist + "\x00" + md.Title)),
		Length:  types.Microseconds(p.session.Position().Duration * microsecondsPerSecond),
		Title:   md.Title,
		Album:   md.Album,
	}
	if md.Artist != "" {
		meta.Artist = []string{md.Artist}
	}
	if len(md.Artwork) > 0 {
		meta.ArtUrl = md.Artwork[0].Src
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetVolume(_ float64) error { return nil }

func (p *playerAdapter) Position() (int64, error) {
	return int64(p.session.Position().Position * microsecondsPerSecond), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.session.Actions().Next != nil, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.session.Actions().Previous != nil, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.session.Actions().Play != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.session.Actions().Pause != nil, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.session.Actions().SeekTo != nil, nil
}

func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

func formatTrackID(key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
