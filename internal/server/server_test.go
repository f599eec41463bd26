package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/engagement"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
)

// fakeController records calls and serves a fixed snapshot.
type fakeController struct {
	mu    sync.Mutex
	calls []string
	snap  player.Snapshot
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeController) Snapshot() player.Snapshot { return f.snap }

func (f *fakeController) PlaySong(track models.Track, queue ...models.Track) {
	f.record("play:" + track.ID + ":" + strings.Repeat("q", len(queue)))
	f.snap.CurrentTrack = &track
}

func (f *fakeController) SetQueue(tracks []models.Track, start int) {
	f.record("queue:" + strings.Repeat("t", len(tracks)))
}

func (f *fakeController) Play()            { f.record("resume") }
func (f *fakeController) Pause()           { f.record("pause") }
func (f *fakeController) TogglePlayPause() { f.record("toggle") }
func (f *fakeController) Next()            { f.record("next") }
func (f *fakeController) Previous()        { f.record("previous") }
func (f *fakeController) ShuffleQueue()    { f.record("shuffle") }

func (f *fakeController) Seek(seconds float64) {
	f.record("seek")
	f.snap.CurrentTime = seconds
}

func (f *fakeController) SetVolume(percent int) {
	f.record("volume")
	f.snap.Volume = percent
}

func (f *fakeController) SetVisibility(hidden bool) {
	f.record("visibility")
	f.snap.Hidden = hidden
}

func newTestRouter(ctrl Controller, inbox AchievementInbox) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recover(log.New(io.Discard)), Logging(log.New(io.Discard)))
	router.Handler(NewControlHandler(ctrl, inbox))
	return router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestControlHandler(t *testing.T) {
	t.Run("State", func(t *testing.T) {
		ctrl := &fakeController{snap: player.Snapshot{State: player.StatePaused, Volume: 70}}
		rec := do(t, newTestRouter(ctrl, nil), http.MethodGet, "/player/state", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}

		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["state"] != "paused" {
			t.Errorf("expected state 'paused', got %v", body["state"])
		}
	})

	t.Run("Play Track", func(t *testing.T) {
		ctrl := &fakeController{}
		rec := do(t, newTestRouter(ctrl, nil), http.MethodPost, "/player/play",
			`{"track":{"id":"a","title":"A"},"queue":[{"id":"a"},{"id":"b"}]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ctrl.last() != "play:a:qq" {
			t.Errorf("unexpected call %q", ctrl.last())
		}
	})

	t.Run("Play Empty Body Resumes", func(t *testing.T) {
		ctrl := &fakeController{}
		do(t, newTestRouter(ctrl, nil), http.MethodPost, "/player/play", "")
		if ctrl.last() != "resume" {
			t.Errorf("expected resume, got %q", ctrl.last())
		}
	})

	t.Run("Play Rejects Missing ID", func(t *testing.T) {
		ctrl := &fakeController{}
		rec := do(t, newTestRouter(ctrl, nil), http.MethodPost, "/player/play", `{"track":{"title":"x"}}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if ctrl.last() != "" {
			t.Errorf("expected no call, got %q", ctrl.last())
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		ctrl := &fakeController{}
		rec := do(t, newTestRouter(ctrl, nil), http.MethodPost, "/player/play", `{"track":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Errorf("expected error body, got %s", rec.Body.String())
		}
	})

	t.Run("Queue", func(t *testing.T) {
		ctrl := &fakeController{}
		router := newTestRouter(ctrl, nil)

		rec := do(t, router, http.MethodPost, "/player/queue", `{"tracks":[{"id":"a"},{"id":"b"},{"id":"c"}],"start":1}`)
		if rec.Code != http.StatusOK || ctrl.last() != "queue:ttt" {
			t.Errorf("unexpected result %d %q", rec.Code, ctrl.last())
		}

		rec = do(t, router, http.MethodPost, "/player/queue", `{"tracks":[{"id":"a"},{"title":"no id"}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Transport", func(t *testing.T) {
		ctrl := &fakeController{}
		router := newTestRouter(ctrl, nil)

		for _, op := range []string{"pause", "toggle", "next", "previous", "shuffle"} {
			rec := do(t, router, http.MethodPost, "/player/"+op, "")
			if rec.Code != http.StatusOK {
				t.Errorf("%s: expected 200, got %d", op, rec.Code)
			}
			if ctrl.last() != op {
				t.Errorf("%s: unexpected call %q", op, ctrl.last())
			}
		}
	})

	t.Run("Seek Volume Visibility", func(t *testing.T) {
		ctrl := &fakeController{}
		router := newTestRouter(ctrl, nil)

		do(t, router, http.MethodPost, "/player/seek", `{"seconds":42.5}`)
		do(t, router, http.MethodPost, "/player/volume", `{"volume":30}`)
		rec := do(t, router, http.MethodPost, "/player/visibility", `{"hidden":true}`)

		var snap struct {
			CurrentTime float64 `json:"currentTime"`
			Volume      int     `json:"volume"`
			Hidden      bool    `json:"hidden"`
		}
		json.Unmarshal(rec.Body.Bytes(), &snap)
		if snap.CurrentTime != 42.5 || snap.Volume != 30 || !snap.Hidden {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	})

	t.Run("Missing Fields", func(t *testing.T) {
		router := newTestRouter(&fakeController{}, nil)
		for _, path := range []string{"/player/seek", "/player/volume", "/player/visibility"} {
			rec := do(t, router, http.MethodPost, path, `{}`)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", path, rec.Code)
			}
		}
	})

	t.Run("Wrong Method", func(t *testing.T) {
		rec := do(t, newTestRouter(&fakeController{}, nil), http.MethodGet, "/player/next", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Achievements", func(t *testing.T) {
		inbox := engagement.NewInbox()
		inbox.Deliver(models.PlayOutcome{
			Achievements: []models.Achievement{{ID: "first-play", Title: "First Play"}},
			LeveledUp:    true,
			Level:        2,
			XP:           120,
		})
		router := newTestRouter(&fakeController{}, inbox)

		rec := do(t, router, http.MethodGet, "/achievements", "")
		var body achievementsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(body.Achievements) != 1 || body.LevelUp == nil || body.LevelUp.Level != 2 {
			t.Errorf("unexpected body %+v", body)
		}

		rec = do(t, router, http.MethodPost, "/achievements/dismiss", `{"id":"first-play","levelUp":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body = achievementsResponse{}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if len(body.Achievements) != 0 || body.LevelUp != nil {
			t.Errorf("expected empty inbox, got %+v", body)
		}

		rec = do(t, router, http.MethodPost, "/achievements/dismiss", `{"id":"first-play"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for dismissed achievement, got %d", rec.Code)
		}

		rec = do(t, router, http.MethodPost, "/achievements/dismiss", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Routes Pass Through Middleware", func(t *testing.T) {
		var patterns []string
		record := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				patterns = append(patterns, r.Pattern)
				next.ServeHTTP(w, r)
			})
		}

		router := NewBasicRouter()
		router.Use(record)
		router.Handler(NewControlHandler(&fakeController{}, nil))

		do(t, router, http.MethodPost, "/player/next", "")
		do(t, router, http.MethodGet, "/achievements", "")
		do(t, router, http.MethodGet, "/player/unknown", "")

		want := []string{"POST /player/next", "GET /achievements"}
		if len(patterns) != len(want) {
			t.Fatalf("expected %v, got %v", want, patterns)
		}
		for i := range want {
			if patterns[i] != want[i] {
				t.Errorf("request %d: expected pattern %q, got %q", i, want[i], patterns[i])
			}
		}
	})

	t.Run("Empty Achievements Encode As Array", func(t *testing.T) {
		rec := do(t, newTestRouter(&fakeController{}, nil), http.MethodGet, "/achievements", "")
		if !strings.Contains(rec.Body.String(), `"achievements":[]`) {
			t.Errorf("expected empty array, got %s", rec.Body.String())
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.HandleFunc(http.MethodGet, "/x", func(w http.ResponseWriter, r *http.Request) {})

		do(t, router, http.MethodGet, "/x", "")
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})

	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		router := NewBasicRouter()
		router.Use(Logging(logger))
		router.HandleFunc(http.MethodGet, "/teapot", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		do(t, router, http.MethodGet, "/teapot", "")
		out := buf.String()
		if !strings.Contains(out, "/teapot") || !strings.Contains(out, "418") {
			t.Errorf("expected request log line, got %q", out)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recover(log.New(io.Discard)))
		router.HandleFunc(http.MethodGet, "/boom", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		rec := do(t, router, http.MethodGet, "/boom", "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), log.New(io.Discard))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
