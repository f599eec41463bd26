package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/samber/lo"
)

const xpPerLevel = 100

type milestone struct {
	achievement models.Achievement
	reached     func(l models.Ledger) bool
}

var milestones = []milestone{
	{
		achievement: models.Achievement{ID: "first-play", Title: "First Play", Description: "Play your first track", Icon: "🎵"},
		reached:     func(l models.Ledger) bool { return l.Plays >= 1 },
	},
	{
		achievement: models.Achievement{ID: "ten-plays", Title: "Regular", Description: "Play 10 tracks", Icon: "🔟"},
		reached:     func(l models.Ledger) bool { return l.Plays >= 10 },
	},
	{
		achievement: models.Achievement{ID: "century", Title: "Century", Description: "Play 100 tracks", Icon: "💯"},
		reached:     func(l models.Ledger) bool { return l.Plays >= 100 },
	},
	{
		achievement: models.Achievement{ID: "marathon", Title: "Marathon", Description: "Listen for an hour", Icon: "🏃"},
		reached:     func(l models.Ledger) bool { return l.SecondsListened >= 3600 },
	},
}

// Catalog returns every achievement that can be unlocked.
func Catalog() []models.Achievement {
	return lo.Map(milestones, func(m milestone, _ int) models.Achievement { return m.achievement })
}

// XPForPlay is the XP a single play of durationSeconds earns: one point per full minute
// (at least one) plus a base point.
func XPForPlay(durationSeconds int) int {
	return max(1, durationSeconds/60) + 1
}

// LevelFor returns the level reached with xp.
func LevelFor(xp int) int {
	return 1 + xp/xpPerLevel
}

// LedgerRepository is the local gamification backend.
type LedgerRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewLedgerRepository creates a new LedgerRepository with the given database connection
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db, now: time.Now}
}

// RecordPlay credits a play to userID and reports what it unlocked.
//
// Achievements are returned only on the play that unlocks them.
func (r *LedgerRepository) RecordPlay(ctx context.Context, userID string, durationSeconds int) (models.PlayOutcome, error) {
	if userID == "" {
		return models.PlayOutcome{}, fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.PlayOutcome{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ledger, err := getLedger(ctx, tx, userID)
	if err != nil {
		return models.PlayOutcome{}, err
	}

	now := r.now().UTC()
	before := ledger.Level
	ledger.XP += XPForPlay(durationSeconds)
	ledger.Level = LevelFor(ledger.XP)
	ledger.Plays++
	ledger.SecondsListened += max(0, durationSeconds)
	ledger.UpdatedAt = now

	query := `
		INSERT INTO ledgers (user_id, xp, level, plays, seconds_listened, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			xp = excluded.xp,
			level = excluded.level,
			plays = excluded.plays,
			seconds_listened = excluded.seconds_listened,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, userID, ledger.XP, ledger.Level, ledger.Plays, ledger.SecondsListened, now); err != nil {
		return models.PlayOutcome{}, fmt.Errorf("failed to update ledger: %w", err)
	}

	var unlocked []models.Achievement
	for _, m := range milestones {
		if !m.reached(ledger) {
			continue
		}

		result, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO unlocked_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)",
			userID, m.achievement.ID, now,
		)
		if err != nil {
			return models.PlayOutcome{}, fmt.Errorf("failed to unlock %s: %w", m.achievement.ID, err)
		}

		if n, err := result.RowsAffected(); err == nil && n > 0 {
			a := m.achievement
			a.UnlockedAt = now
			unlocked = append(unlocked, a)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.PlayOutcome{}, fmt.Errorf("failed to commit ledger transaction: %w", err)
	}

	return models.PlayOutcome{
		Achievements: unlocked,
		LeveledUp:    ledger.Level > before,
		Level:        ledger.Level,
		XP:           ledger.XP,
	}, nil
}

// Get returns the ledger for userID. A user with no plays gets a level 1 ledger.
func (r *LedgerRepository) Get(ctx context.Context, userID string) (models.Ledger, error) {
	return getLedger(ctx, r.db, userID)
}

// Achievements lists what userID has unlocked, oldest first.
func (r *LedgerRepository) Achievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT achievement_id, unlocked_at FROM unlocked_achievements WHERE user_id = ? ORDER BY unlocked_at ASC, achievement_id ASC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	catalog := lo.KeyBy(Catalog(), func(a models.Achievement) string { return a.ID })

	var achievements []models.Achievement
	for rows.Next() {
		var (
			id         string
			unlockedAt time.Time
		)
		if err := rows.Scan(&id, &unlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}

		a, ok := catalog[id]
		if !ok {
			a = models.Achievement{ID: id, Title: id}
		}
		a.UnlockedAt = unlockedAt
		achievements = append(achievements, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return achievements, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getLedger(ctx context.Context, q queryRower, userID string) (models.Ledger, error) {
	ledger := models.Ledger{UserID: userID, Level: 1}

	err := q.QueryRowContext(ctx,
		"SELECT xp, level, plays, seconds_listened, updated_at FROM ledgers WHERE user_id = ?",
		userID,
	).Scan(&ledger.XP, &ledger.Level, &ledger.Plays, &ledger.SecondsListened, &ledger.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger, nil
	}
	if err != nil {
		return models.Ledger{}, fmt.Errorf("failed to read ledger: %w", err)
	}

	return ledger, nil
}
