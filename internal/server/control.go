package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/ytplay/internal/engagement"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
)

const maxBodyBytes = 1 << 20

// Controller is the playback surface exposed over HTTP. [player.Engine] satisfies it.
type Controller interface {
	Snapshot() player.Snapshot
	PlaySong(track models.Track, queue ...models.Track)
	SetQueue(tracks []models.Track, start int)
	Play()
	Pause()
	TogglePlayPause()
	Next()
	Previous()
	Seek(seconds float64)
	SetVolume(percent int)
	ShuffleQueue()
	SetVisibility(hidden bool)
}

// AchievementInbox is the pending achievement surface. [engagement.Inbox] satisfies it.
type AchievementInbox interface {
	Achievements() []models.Achievement
	LevelUp() (engagement.LevelUp, bool)
	Dismiss(id string) bool
	DismissLevelUp()
}

// ControlHandler serves the player and achievement endpoints.
type ControlHandler struct {
	ctrl  Controller
	inbox AchievementInbox
}

// NewControlHandler builds the control endpoints. A nil inbox serves an empty one.
func NewControlHandler(ctrl Controller, inbox AchievementInbox) *ControlHandler {
	if inbox == nil {
		inbox = engagement.NewInbox()
	}
	return &ControlHandler{ctrl: ctrl, inbox: inbox}
}

// Register adds every control route to r, so each one passes through r's middleware.
func (h *ControlHandler) Register(r Router) {
	routes := []struct {
		method, path string
		fn           http.HandlerFunc
	}{
		{http.MethodGet, "/player/state", h.state},
		{http.MethodPost, "/player/play", h.play},
		{http.MethodPost, "/player/queue", h.queue},
		{http.MethodPost, "/player/pause", h.simple(h.ctrl.Pause)},
		{http.MethodPost, "/player/toggle", h.simple(h.ctrl.TogglePlayPause)},
		{http.MethodPost, "/player/next", h.simple(h.ctrl.Next)},
		{http.MethodPost, "/player/previous", h.simple(h.ctrl.Previous)},
		{http.MethodPost, "/player/shuffle", h.simple(h.ctrl.ShuffleQueue)},
		{http.MethodPost, "/player/seek", h.seek},
		{http.MethodPost, "/player/volume", h.volume},
		{http.MethodPost, "/player/visibility", h.visibility},
		{http.MethodGet, "/achievements", h.achievements},
		{http.MethodPost, "/achievements/dismiss", h.dismiss},
	}
	for _, route := range routes {
		r.Handle(route.method, route.path, route.fn)
	}
}

func (h *ControlHandler) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// simple adapts a no-argument operation. The response is the state after the call.
func (h *ControlHandler) simple(op func()) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		op()
		writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
	}
}

type playRequest struct {
	Track *models.Track  `json:"track"`
	Queue []models.Track `json:"queue,omitempty"`
}

// play starts a track, or resumes when the body is empty.
func (h *ControlHandler) play(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	empty, err := decode(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case empty || req.Track == nil:
		h.ctrl.Play()
	case req.Track.ID == "":
		writeError(w, http.StatusBadRequest, "track.id is required")
		return
	default:
		h.ctrl.PlaySong(*req.Track, req.Queue...)
	}
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

type queueRequest struct {
	Tracks []models.Track `json:"tracks"`
	Start  int            `json:"start"`
}

func (h *ControlHandler) queue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if _, err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i, t := range req.Tracks {
		if t.ID == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("tracks[%d].id is required", i))
			return
		}
	}

	h.ctrl.SetQueue(req.Tracks, req.Start)
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *ControlHandler) seek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds *float64 `json:"seconds"`
	}
	if _, err := decode(r, &req); err != nil || req.Seconds == nil {
		writeError(w, http.StatusBadRequest, "seconds is required")
		return
	}

	h.ctrl.Seek(*req.Seconds)
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *ControlHandler) volume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume *int `json:"volume"`
	}
	if _, err := decode(r, &req); err != nil || req.Volume == nil {
		writeError(w, http.StatusBadRequest, "volume is required")
		return
	}

	h.ctrl.SetVolume(*req.Volume)
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *ControlHandler) visibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hidden *bool `json:"hidden"`
	}
	if _, err := decode(r, &req); err != nil || req.Hidden == nil {
		writeError(w, http.StatusBadRequest, "hidden is required")
		return
	}

	h.ctrl.SetVisibility(*req.Hidden)
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

type achievementsResponse struct {
	Achievements []models.Achievement `json:"achievements"`
	LevelUp      *engagement.LevelUp  `json:"levelUp,omitempty"`
}

func (h *ControlHandler) achievementsBody() achievementsResponse {
	resp := achievementsResponse{Achievements: h.inbox.Achievements()}
	if resp.Achievements == nil {
		resp.Achievements = []models.Achievement{}
	}
	if lu, ok := h.inbox.LevelUp(); ok {
		resp.LevelUp = &lu
	}
	return resp
}

func (h *ControlHandler) achievements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.achievementsBody())
}

// dismiss removes one achievement by id and/or the level-up banner.
func (h *ControlHandler) dismiss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		LevelUp bool   `json:"levelUp"`
	}
	if _, err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == "" && !req.LevelUp {
		writeError(w, http.StatusBadRequest, "id or levelUp is required")
		return
	}

	if req.LevelUp {
		h.inbox.DismissLevelUp()
	}
	if req.ID != "" && !h.inbox.Dismiss(req.ID) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("achievement %q not pending", req.ID))
		return
	}
	writeJSON(w, http.StatusOK, h.achievementsBody())
}

// decode reads a JSON body into v. empty reports a missing body, which is not an error.
func decode(r *http.Request, v any) (empty bool, err error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		return false, fmt.Errorf("invalid JSON body: %w", err)
	}
	return false, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var _ Controller = (*player.Engine)(nil)
var _ AchievementInbox = (*engagement.Inbox)(nil)
