package engagement

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"golang.org/x/time/rate"
)

// HistoryRecorder appends a track to the listening history.
type HistoryRecorder interface {
	AddToHistory(ctx context.Context, track models.Track) error
}

// PlayRecorder records a play for analytics.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, track models.Track) error
}

// Gamifier awards XP and achievements for a play.
type Gamifier interface {
	RecordPlay(ctx context.Context, userID string, durationSeconds int) (models.PlayOutcome, error)
}

const DefaultTimeout = 10 * time.Second

// Options configures a [Dispatcher]. Every collaborator is optional.
type Options struct {
	UserID   string
	History  []HistoryRecorder
	Plays    []PlayRecorder
	Gamifier Gamifier
	Inbox    *Inbox
	Logger   *log.Logger

	// Timeout bounds each collaborator call.
	Timeout time.Duration
	// RateLimit is the number of calls per second across all collaborators. Zero disables limiting.
	RateLimit float64
	Burst     int
}

// Dispatcher implements the player's event emitter.
type Dispatcher struct {
	userID   string
	history  []HistoryRecorder
	plays    []PlayRecorder
	gamifier Gamifier
	inbox    *Inbox
	logger   *log.Logger
	timeout  time.Duration
	limiter  *rate.Limiter

	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Inbox == nil {
		opts.Inbox = NewInbox()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		userID:   opts.UserID,
		history:  opts.History,
		plays:    opts.Plays,
		gamifier: opts.Gamifier,
		inbox:    opts.Inbox,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		limiter:  rate.NewLimiter(limit, opts.Burst),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Inbox returns the achievement inbox fed by gamification outcomes.
func (d *Dispatcher) Inbox() *Inbox { return d.inbox }

// TrackStarted dispatches every side effect for track and returns immediately.
func (d *Dispatcher) TrackStarted(track models.Track) {
	for _, h := range d.history {
		d.dispatch("history", track, func(ctx context.Context) error {
			return h.AddToHistory(ctx, track)
		})
	}

	for _, p := range d.plays {
		d.dispatch("stats", track, func(ctx context.Context) error {
			return p.RecordPlay(ctx, track)
		})
	}

	if d.gamifier == nil {
		return
	}
	if d.userID == "" {
		d.logger.Debug("no user, skipping gamification", "id", track.ID)
		return
	}
	d.dispatch("gamification", track, func(ctx context.Context) error {
		outcome, err := d.gamifier.RecordPlay(ctx, d.userID, track.Seconds())
		if err != nil {
			return err
		}
		if added := d.inbox.Deliver(outcome); added > 0 || outcome.LeveledUp {
			d.logger.Info("gamification update", "achievements", added, "leveled_up", outcome.LeveledUp, "level", outcome.Level)
		}
		return nil
	})
}

// dispatch runs fn on its own goroutine. Nothing it does reaches the caller.
func (d *Dispatcher) dispatch(kind string, track models.Track, fn func(context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("side effect panicked", "kind", kind, "id", track.ID, "panic", r)
			}
		}()

		if err := d.limiter.Wait(d.ctx); err != nil {
			d.logger.Debug("side effect dropped", "kind", kind, "id", track.ID, "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.logger.Warn("side effect failed", "kind", kind, "id", track.ID, "error", err)
			return
		}
		d.logger.Debug("side effect recorded", "kind", kind, "id", track.ID)
	}()
}

// Close cancels in-flight calls and waits for their goroutines. Side effects
// still waiting on the limiter or their collaborator when Close runs are
// dropped, not flushed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
