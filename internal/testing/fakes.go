package testing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
)

// FakeSDK is a [player.SDK] whose readiness is triggered by the test.
type FakeSDK struct {
	// Echo makes constructed handles report state changes the way a real player would.
	Echo bool
	// AutoReady fires the handle's OnReady callback during Construct.
	AutoReady    bool
	ConstructErr error

	mu         sync.Mutex
	ready      chan struct{}
	readyOnce  sync.Once
	constructs int
	handle     *FakeHandle
}

func NewFakeSDK() *FakeSDK {
	return &FakeSDK{ready: make(chan struct{}), Echo: true, AutoReady: true}
}

func (s *FakeSDK) Ready() <-chan struct{} { return s.ready }

// SignalReady resolves the SDK readiness future. Safe to call repeatedly.
func (s *FakeSDK) SignalReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *FakeSDK) Construct(elementID string, cfg player.Config, cb player.Callbacks) (player.Handle, error) {
	s.mu.Lock()
	s.constructs++
	if s.ConstructErr != nil {
		err := s.ConstructErr
		s.mu.Unlock()
		return nil, err
	}
	h := NewFakeHandle(cb)
	h.echo = s.Echo
	h.volume = cfg.Volume
	s.handle = h
	auto := s.AutoReady
	s.mu.Unlock()

	if auto && cb.OnReady != nil {
		cb.OnReady()
	}
	return h, nil
}

func (s *FakeSDK) Constructs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.constructs
}

// Handle returns the last constructed handle, or nil.
func (s *FakeSDK) Handle() *FakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// FakeHandle is a scriptable [player.Handle] that records every call.
type FakeHandle struct {
	mu          sync.Mutex
	cb          player.Callbacks
	echo        bool
	calls       []string
	state       player.PlayerState
	currentTime float64
	duration    float64
	volume      int
	failing     map[string]bool
	timeReads   int
	destroyed   int
}

func NewFakeHandle(cb player.Callbacks) *FakeHandle {
	return &FakeHandle{cb: cb, state: player.PlayerUnstarted, failing: map[string]bool{}}
}

// FailLoad makes LoadVideoByID return an error for id.
func (h *FakeHandle) FailLoad(id string) {
	h.mu.Lock()
	h.failing[id] = true
	h.mu.Unlock()
}

func (h *FakeHandle) record(call string) {
	h.calls = append(h.calls, call)
}

func (h *FakeHandle) LoadVideoByID(id string) error {
	h.mu.Lock()
	h.record("load:" + id)
	if h.failing[id] {
		h.mu.Unlock()
		return fmt.Errorf("cannot load %s", id)
	}
	h.currentTime = 0
	h.state = player.PlayerBuffering
	h.mu.Unlock()
	return nil
}

func (h *FakeHandle) Play() error {
	h.mu.Lock()
	h.record("play")
	h.state = player.PlayerPlaying
	echo := h.echo
	h.mu.Unlock()

	if echo {
		h.Fire(player.PlayerPlaying)
	}
	return nil
}

func (h *FakeHandle) Pause() error {
	h.mu.Lock()
	h.record("pause")
	h.state = player.PlayerPaused
	echo := h.echo
	h.mu.Unlock()

	if echo {
		h.Fire(player.PlayerPaused)
	}
	return nil
}

func (h *FakeHandle) SeekTo(seconds float64, allowSeekAhead bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record(fmt.Sprintf("seek:%g", seconds))
	h.currentTime = seconds
	return nil
}

func (h *FakeHandle) SetVolume(percent int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record(fmt.Sprintf("volume:%d", percent))
	h.volume = percent
	return nil
}

func (h *FakeHandle) CurrentTime() (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeReads++
	return h.currentTime, nil
}

func (h *FakeHandle) Duration() (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duration, nil
}

func (h *FakeHandle) PlayerState() (player.PlayerState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, nil
}

func (h *FakeHandle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("destroy")
	h.destroyed++
	return nil
}

// Fire delivers a state change callback.
func (h *FakeHandle) Fire(s player.PlayerState) {
	if h.cb.OnStateChange != nil {
		h.cb.OnStateChange(s)
	}
}

// FireReady delivers the ready callback.
func (h *FakeHandle) FireReady() {
	if h.cb.OnReady != nil {
		h.cb.OnReady()
	}
}

// FireError delivers an error callback.
func (h *FakeHandle) FireError(code int) {
	if h.cb.OnError != nil {
		h.cb.OnError(code)
	}
}

// SetState changes what PlayerState reports without firing a callback,
// like a host that pauses audio silently.
func (h *FakeHandle) SetState(s player.PlayerState) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// SetTime changes what CurrentTime and Duration report.
func (h *FakeHandle) SetTime(pos, dur float64) {
	h.mu.Lock()
	h.currentTime, h.duration = pos, dur
	h.mu.Unlock()
}

func (h *FakeHandle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// Count returns how many recorded calls start with prefix.
func (h *FakeHandle) Count(prefix string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Loaded returns the IDs passed to LoadVideoByID in order.
func (h *FakeHandle) Loaded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var ids []string
	for _, c := range h.calls {
		if id, ok := strings.CutPrefix(c, "load:"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (h *FakeHandle) TimeReads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.timeReads
}

func (h *FakeHandle) Destroyed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// FakeMediaSession records everything projected to it.
type FakeMediaSession struct {
	mu        sync.Mutex
	metadata  []player.Metadata
	actions   player.Actions
	positions []player.PositionState
	states    []string
}

func (m *FakeMediaSession) SetMetadata(md player.Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata = append(m.metadata, md)
}

func (m *FakeMediaSession) SetActionHandlers(a player.Actions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = a
}

func (m *FakeMediaSession) SetPositionState(ps player.PositionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = append(m.positions, ps)
}

func (m *FakeMediaSession) SetPlaybackState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
}

func (m *FakeMediaSession) Metadata() []player.Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]player.Metadata(nil), m.metadata...)
}

func (m *FakeMediaSession) Actions() player.Actions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actions
}

func (m *FakeMediaSession) Positions() []player.PositionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]player.PositionState(nil), m.positions...)
}

func (m *FakeMediaSession) States() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.states...)
}

// FakeKeepAlive counts calls.
type FakeKeepAlive struct {
	mu                    sync.Mutex
	plays, pauses, closes int
}

func (k *FakeKeepAlive) Play() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.plays++
	return nil
}

func (k *FakeKeepAlive) Pause() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pauses++
	return nil
}

func (k *FakeKeepAlive) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closes++
	return nil
}

// Counts returns play, pause and close counts.
func (k *FakeKeepAlive) Counts() (plays, pauses, closes int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.plays, k.pauses, k.closes
}

// RecordingEmitter collects started tracks.
type RecordingEmitter struct {
	mu      sync.Mutex
	started []models.Track
}

func (r *RecordingEmitter) TrackStarted(track models.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, track)
}

func (r *RecordingEmitter) Started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.started))
	for i, t := range r.started {
		ids[i] = t.ID
	}
	return ids
}
