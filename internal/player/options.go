package player

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

const (
	DefaultElementID        = "ytplay-player"
	DefaultPollInterval     = 250 * time.Millisecond
	DefaultWatchdogInterval = time.Second
	DefaultVolume           = 100
)

// RestartThreshold is the position, in seconds, past which Previous restarts the current
// track instead of stepping back.
const RestartThreshold = 3.0

// Options configures an [Engine]. Only SDK is required.
type Options struct {
	SDK          SDK
	MediaSession MediaSession
	KeepAlive    KeepAlive
	Emitter      Emitter
	Logger       *log.Logger

	ElementID        string
	PollInterval     time.Duration
	WatchdogInterval time.Duration
	// Volume is the initial volume, clamped to 0-100. None uses DefaultVolume.
	Volume mo.Option[int]
}

func (o Options) withDefaults() Options {
	if o.MediaSession == nil {
		o.MediaSession = nopMediaSession{}
	}
	if o.KeepAlive == nil {
		o.KeepAlive = NopKeepAlive{}
	}
	if o.Emitter == nil {
		o.Emitter = nopEmitter{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.ElementID == "" {
		o.ElementID = DefaultElementID
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.WatchdogInterval <= 0 {
		o.WatchdogInterval = DefaultWatchdogInterval
	}
	o.Volume = mo.Some(lo.Clamp(o.Volume.OrElse(DefaultVolume), 0, 100))
	return o
}
