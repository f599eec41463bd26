package player

// State is the engine's playback state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	// StateEnded is transient: the engine advances the queue as soon as it is entered.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// transition returns the state entered when the player reports code while the engine is in s.
// ok is false when the event does not move the machine, which makes duplicates no-ops.
func (s State) transition(code PlayerState) (next State, ok bool) {
	switch code {
	case PlayerPlaying:
		if s == StateLoading || s == StatePaused {
			return StatePlaying, true
		}
	case PlayerPaused:
		if s == StatePlaying || s == StateLoading {
			return StatePaused, true
		}
	case PlayerEnded:
		if s == StatePlaying || s == StatePaused {
			return StateEnded, true
		}
	}
	return s, false
}

// playbackState is the media session playback state string for s.
func (s State) playbackState() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused, StateLoading, StateEnded:
		return "paused"
	default:
		return "none"
	}
}
