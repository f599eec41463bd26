package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/repositories"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/urfave/cli/v3"
)

// Search prints catalog results for the query given as arguments.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	tracks, err := r.catalog.Search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	if len(tracks) == 0 {
		return r.writePlain("No results for %q\n", query)
	}
	for i, t := range tracks {
		if err := r.writePlain("%2d. %s  [%s]\n", i+1, t.String(), t.ID); err != nil {
			return err
		}
	}
	return nil
}

// filterHistory keeps records whose title or artist fuzzy-matches term, ignoring case.
func filterHistory(records []models.PlayRecord, term string) []models.PlayRecord {
	if term == "" {
		return records
	}
	var kept []models.PlayRecord
	for _, rec := range records {
		if fuzzy.MatchNormalizedFold(term, rec.Track.Title+" "+rec.Track.Artist) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// History prints recently played tracks from the local database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	filter := cmd.String("filter")
	limit := int(cmd.Int("limit"))
	fetch := limit
	if filter != "" {
		fetch = 0
	}

	records, err := repositories.NewPlayHistoryRepository(db).Recent(ctx, fetch)
	if err != nil {
		return err
	}
	records = filterHistory(records, filter)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	out, err := formatter.History(records, format, r.now())
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// Stats prints the most played tracks from the local database.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := repositories.NewStatsRepository(db).Top(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	out, err := formatter.Stats(stats, format)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// Achievements prints the local ledger and unlocked achievements.
func (r *Runner) Achievements(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ledgers := repositories.NewLedgerRepository(db)
	ledger, err := ledgers.Get(ctx, localUserID)
	if err != nil {
		return err
	}
	unlocked, err := ledgers.Achievements(ctx, localUserID)
	if err != nil {
		return err
	}

	out, err := formatter.Achievements(ledger, unlocked, format, r.now())
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}
