package main

import (
	"context"
	"fmt"
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/ytplay-tui.log"

// resolveQueue builds the initial queue from positional video IDs, --playlist or --search.
// An empty queue is valid; tracks can be queued later over the control server.
func (r *Runner) resolveQueue(ctx context.Context, cmd *cli.Command) ([]models.Track, error) {
	var tracks []models.Track

	for _, id := range cmd.Args().Slice() {
		tracks = append(tracks, models.Track{ID: id, Title: id})
	}

	if id := cmd.String("playlist"); id != "" {
		playlist, err := r.catalog.Playlist(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist: %w", err)
		}
		r.logger.Info("queued playlist", "name", playlist.Name, "tracks", len(playlist.Tracks))
		tracks = append(tracks, playlist.Tracks...)
	}

	if q := cmd.String("search"); q != "" {
		results, err := r.catalog.Search(ctx, q, 25)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("%w: no results for %q", shared.ErrTrackNotFound, q)
		}
		tracks = append(tracks, results...)
	}

	return slices.Clip(tracks), nil
}

type queueStarter interface {
	SetQueue(tracks []models.Track, start int)
	ShuffleQueue()
}

// startQueue hands the initial queue to the engine.
func startQueue(ctrl queueStarter, tracks []models.Track, cmd *cli.Command) {
	if len(tracks) == 0 {
		return
	}
	ctrl.SetQueue(tracks, int(cmd.Int("start")))
	if cmd.Bool("shuffle") {
		ctrl.ShuffleQueue()
	}
}

// Play launches the now-playing TUI.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.resolveQueue(ctx, cmd)
	if err != nil {
		return err
	}

	// Logs go to a file so they do not interfere with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = tuiLogPath
	}
	fileLogger, f, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	stack, err := r.newPlayerStack(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if cmd.Bool("serve") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.serveControl(ctx, r.config.Server.Addr(), stack); err != nil {
				r.logger.Error("control server failed", "error", err)
			}
		}()
	}

	startQueue(stack.engine, tracks, cmd)

	model := ui.NewModel(stack.engine, stack.dispatcher.Inbox())
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	_, runErr := p.Run()

	cancel()
	wg.Wait()

	if runErr != nil {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}
