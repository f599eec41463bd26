package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	tracks []string
	err    error
	block  bool
}

func (r *recorder) add(track models.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks = append(r.tracks, track.ID)
}

func (r *recorder) AddToHistory(ctx context.Context, track models.Track) error {
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	r.add(track)
	return r.err
}

func (r *recorder) RecordPlay(ctx context.Context, track models.Track) error {
	return r.AddToHistory(ctx, track)
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tracks...)
}

type gamifier struct {
	mu      sync.Mutex
	outcome models.PlayOutcome
	err     error
	calls   []int
	users   []string
}

func (g *gamifier) RecordPlay(ctx context.Context, userID string, seconds int) (models.PlayOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, seconds)
	g.users = append(g.users, userID)
	return g.outcome, g.err
}

func (g *gamifier) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

var song = models.Track{ID: "abc", Title: "Song", Artist: "Band", Duration: "4:05"}

func TestDispatcher(t *testing.T) {
	t.Run("fans out to every collaborator", func(t *testing.T) {
		history, stats := &recorder{}, &recorder{}
		game := &gamifier{}
		d := New(Options{UserID: "u1", History: []HistoryRecorder{history}, Plays: []PlayRecorder{stats}, Gamifier: game})
		defer d.Close()

		d.TrackStarted(song)

		require.Eventually(t, func() bool {
			return len(history.ids()) == 1 && len(stats.ids()) == 1 && game.count() == 1
		}, time.Second, 5*time.Millisecond)

		game.mu.Lock()
		assert.Equal(t, []int{245}, game.calls)
		assert.Equal(t, []string{"u1"}, game.users)
		game.mu.Unlock()
	})

	t.Run("returns before slow collaborators finish", func(t *testing.T) {
		slow := &recorder{block: true}
		d := New(Options{History: []HistoryRecorder{slow}, Timeout: time.Hour})

		start := time.Now()
		d.TrackStarted(song)
		assert.Less(t, time.Since(start), 100*time.Millisecond)

		d.Close()
		assert.Empty(t, slow.ids())
	})

	t.Run("timeouts bound each call", func(t *testing.T) {
		slow := &recorder{block: true}
		d := New(Options{History: []HistoryRecorder{slow}, Timeout: 10 * time.Millisecond})
		defer d.Close()

		d.TrackStarted(song)
		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("call was not cancelled by its timeout")
		}
	})

	t.Run("failures are swallowed", func(t *testing.T) {
		broken := &recorder{err: errors.New("boom")}
		game := &gamifier{err: errors.New("500")}
		d := New(Options{UserID: "u1", History: []HistoryRecorder{broken}, Gamifier: game})

		assert.NotPanics(t, func() { d.TrackStarted(song) })
		d.Close()

		assert.Empty(t, d.Inbox().Achievements())
		_, ok := d.Inbox().LevelUp()
		assert.False(t, ok)
	})

	t.Run("gamification needs a user", func(t *testing.T) {
		game := &gamifier{}
		d := New(Options{Gamifier: game})
		d.TrackStarted(song)
		d.Close()
		assert.Zero(t, game.count())
	})

	t.Run("outcomes reach the inbox", func(t *testing.T) {
		game := &gamifier{outcome: models.PlayOutcome{
			Achievements: []models.Achievement{{ID: "first-play", Title: "First Play"}},
			LeveledUp:    true,
			Level:        2,
		}}
		d := New(Options{UserID: "u1", Gamifier: game})

		d.TrackStarted(song)
		d.TrackStarted(song)
		require.Eventually(t, func() bool {
			return game.count() == 2
		}, time.Second, 5*time.Millisecond)
		d.Close()

		require.Len(t, d.Inbox().Achievements(), 1)
		lvl, ok := d.Inbox().LevelUp()
		require.True(t, ok)
		assert.Equal(t, 2, lvl.Level)
	})

	t.Run("rate limit delays but does not drop", func(t *testing.T) {
		history := &recorder{}
		d := New(Options{History: []HistoryRecorder{history}, RateLimit: 200, Burst: 1})
		defer d.Close()

		for i := 0; i < 5; i++ {
			d.TrackStarted(song)
		}

		require.Eventually(t, func() bool {
			return len(history.ids()) == 5
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("events after close are dropped", func(t *testing.T) {
		history := &recorder{}
		d := New(Options{History: []HistoryRecorder{history}})
		d.Close()
		d.Close()

		d.TrackStarted(song)
		assert.Empty(t, history.ids())
	})
}

func TestInbox(t *testing.T) {
	first := models.Achievement{ID: "first-play", Title: "First Play"}
	ten := models.Achievement{ID: "ten-plays", Title: "Ten Plays"}

	t.Run("each achievement appears once", func(t *testing.T) {
		inbox := NewInbox()

		assert.Equal(t, 2, inbox.Add(first, ten))
		assert.Equal(t, 0, inbox.Add(first))
		assert.Equal(t, 0, inbox.Deliver(models.PlayOutcome{Achievements: []models.Achievement{ten}}))

		assert.Equal(t, []models.Achievement{first, ten}, inbox.Achievements())
	})

	t.Run("dismiss removes one", func(t *testing.T) {
		inbox := NewInbox()
		inbox.Add(first, ten)

		assert.True(t, inbox.Dismiss("first-play"))
		assert.False(t, inbox.Dismiss("first-play"))
		assert.Equal(t, []models.Achievement{ten}, inbox.Achievements())

		assert.Zero(t, inbox.Add(first), "dismissed achievements do not come back")
	})

	t.Run("ignores achievements without id", func(t *testing.T) {
		inbox := NewInbox()
		assert.Zero(t, inbox.Add(models.Achievement{Title: "nameless"}))
	})

	t.Run("level up notice", func(t *testing.T) {
		inbox := NewInbox()
		inbox.Deliver(models.PlayOutcome{LeveledUp: true, Level: 3, XP: 250})

		lvl, ok := inbox.LevelUp()
		require.True(t, ok)
		assert.Equal(t, LevelUp{Level: 3, XP: 250}, lvl)

		inbox.DismissLevelUp()
		_, ok = inbox.LevelUp()
		assert.False(t, ok)
	})

	t.Run("updates signal changes", func(t *testing.T) {
		inbox := NewInbox()
		inbox.Add(first)

		select {
		case <-inbox.Updates():
		default:
			t.Fatal("expected an update signal")
		}

		inbox.Deliver(models.PlayOutcome{})
		select {
		case <-inbox.Updates():
			t.Fatal("empty outcome should not signal")
		default:
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		inbox := NewInbox()
		inbox.Add(first)
		got := inbox.Achievements()
		got[0].Title = "changed"
		assert.Equal(t, "First Play", inbox.Achievements()[0].Title)
	})
}
