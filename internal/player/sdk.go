package player

import "fmt"

// PlayerState is a state code reported by the embedded player.
// Values follow the IFrame player API.
type PlayerState int

const (
	PlayerUnstarted PlayerState = -1
	PlayerEnded     PlayerState = 0
	PlayerPlaying   PlayerState = 1
	PlayerPaused    PlayerState = 2
	PlayerBuffering PlayerState = 3
	PlayerCued      PlayerState = 5
)

func (s PlayerState) String() string {
	switch s {
	case PlayerUnstarted:
		return "unstarted"
	case PlayerEnded:
		return "ended"
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	case PlayerBuffering:
		return "buffering"
	case PlayerCued:
		return "cued"
	default:
		return fmt.Sprintf("PlayerState(%d)", int(s))
	}
}

// Config is passed to [SDK.Construct].
type Config struct {
	Volume   int
	Autoplay bool
}

// Callbacks are invoked by the SDK on any goroutine.
type Callbacks struct {
	OnReady       func()
	OnStateChange func(PlayerState)
	OnError       func(code int)
}

// Handle is an embedded player instance.
type Handle interface {
	LoadVideoByID(id string) error
	Play() error
	Pause() error
	SeekTo(seconds float64, allowSeekAhead bool) error
	SetVolume(percent int) error
	CurrentTime() (float64, error)
	Duration() (float64, error)
	PlayerState() (PlayerState, error)
	Destroy() error
}

// SDK constructs player handles.
//
// Ready returns a channel that is closed once the SDK can construct players.
// It may never close if the SDK fails to load.
type SDK interface {
	Ready() <-chan struct{}
	Construct(elementID string, cfg Config, cb Callbacks) (Handle, error)
}
