package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/engagement"
	"github.com/desertthunder/ytplay/internal/keepalive"
	"github.com/desertthunder/ytplay/internal/mediasession"
	"github.com/desertthunder/ytplay/internal/mpv"
	"github.com/desertthunder/ytplay/internal/player"
	"github.com/desertthunder/ytplay/internal/repositories"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/samber/mo"
)

// localUserID owns the ledger when no hosted user is configured.
const localUserID = "local"

// playerStack is everything a playback session owns. Close tears it down in reverse order.
type playerStack struct {
	engine     *player.Engine
	dispatcher *engagement.Dispatcher
	session    *mediasession.Session
	mpris      *mediasession.Adapter
	sdk        *mpv.SDK
	db         *sql.DB
}

// engagementOptions wires the side-effect sinks: the local database always, the hosted API when
// a token is available and Last.fm when credentials are configured.
func (r *Runner) engagementOptions(ctx context.Context, db *sql.DB, logger *log.Logger) engagement.Options {
	opts := engagement.Options{
		UserID:    localUserID,
		Logger:    shared.WithLogger(logger, "component", "engagement"),
		Timeout:   r.config.API.Timeout,
		RateLimit: r.config.API.RateLimit,
		Burst:     r.config.API.Burst,
	}

	if db != nil {
		opts.History = append(opts.History, repositories.NewPlayHistoryRepository(db))
		opts.Plays = append(opts.Plays, repositories.NewStatsRepository(db))
		opts.Gamifier = repositories.NewLedgerRepository(db)
	}

	if api := r.apiService(ctx); api != nil {
		opts.History = append(opts.History, services.NewHistoryClient(api, r.config.API.UserID))
		opts.Plays = append(opts.Plays, services.NewStatsClient(api))
		if r.config.API.UserID != "" {
			opts.UserID = r.config.API.UserID
			opts.Gamifier = services.NewGamificationClient(api)
		}
	}

	if r.config.LastFM.Enabled() {
		lfm := r.config.LastFM
		scrobbler, err := services.NewLastFMScrobbler(lfm.APIKey, lfm.APISecret, lfm.SessionKey)
		if err != nil {
			logger.Warn("last.fm disabled", "error", err)
		} else {
			opts.Plays = append(opts.Plays, scrobbler)
		}
	}

	return opts
}

// newPlayerStack starts mpv, the media session and the engine.
func (r *Runner) newPlayerStack(ctx context.Context) (*playerStack, error) {
	cfg := r.config.Player
	if cfg.Backend != "" && cfg.Backend != "mpv" {
		return nil, fmt.Errorf("%w: unsupported player backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}

	ka, err := keepalive.New(cfg.KeepAlive)
	if err != nil {
		return nil, err
	}

	s := &playerStack{session: mediasession.New()}

	if s.db, err = r.openDatabase(); err != nil {
		r.logger.Warn("local history disabled", "error", err)
		s.db = nil
	}

	s.sdk, err = mpv.NewSDK(mpv.Options{
		Path:   cfg.MPVPath,
		Logger: shared.WithLogger(r.logger, "component", "mpv"),
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := s.sdk.Start(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	if s.mpris, err = mediasession.Serve(s.session, appName); err != nil {
		r.logger.Warn("media session unavailable", "error", err)
		s.mpris = nil
	}

	s.dispatcher = engagement.New(r.engagementOptions(ctx, s.db, r.logger))

	s.engine, err = player.New(player.Options{
		SDK:              s.sdk,
		MediaSession:     s.session,
		KeepAlive:        ka,
		Emitter:          s.dispatcher,
		Logger:           shared.WithLogger(r.logger, "component", "engine"),
		ElementID:        cfg.ElementID,
		PollInterval:     cfg.PollInterval,
		WatchdogInterval: cfg.WatchdogInterval,
		Volume:           mo.Some(cfg.DefaultVolume),
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *playerStack) Close() error {
	var err error
	if s.engine != nil {
		err = errors.Join(err, s.engine.Close())
	}
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if s.mpris != nil {
		err = errors.Join(err, s.mpris.Close())
	}
	if s.sdk != nil {
		err = errors.Join(err, s.sdk.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
