package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

// StatsRepository aggregates plays per track.
type StatsRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewStatsRepository creates a new StatsRepository with the given database connection
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db, now: time.Now}
}

// RecordPlay counts one play of track and adds its duration to the listening total.
// Display fields are refreshed from the latest play.
func (r *StatsRepository) RecordPlay(ctx context.Context, track models.Track) error {
	if track.ID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO track_stats (video_id, title, artist, thumbnail, duration, play_count, total_seconds, last_played_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			thumbnail = excluded.thumbnail,
			duration = excluded.duration,
			play_count = track_stats.play_count + 1,
			total_seconds = track_stats.total_seconds + excluded.total_seconds,
			last_played_at = excluded.last_played_at
	`

	_, err := r.db.ExecContext(ctx, query,
		track.ID,
		track.Title,
		track.Artist,
		track.Thumbnail,
		track.Duration,
		track.Seconds(),
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}

	return nil
}

// Get returns the stats row for a video ID
func (r *StatsRepository) Get(ctx context.Context, videoID string) (*models.TrackStats, error) {
	query := `
		SELECT video_id, title, artist, thumbnail, duration, play_count, total_seconds, last_played_at
		FROM track_stats
		WHERE video_id = ?
	`

	stats, err := scanStats(r.db.QueryRowContext(ctx, query, videoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, videoID)
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Top returns the most played tracks. Ties go to the most recently played.
func (r *StatsRepository) Top(ctx context.Context, limit int) ([]models.TrackStats, error) {
	query := `
		SELECT video_id, title, artist, thumbnail, duration, play_count, total_seconds, last_played_at
		FROM track_stats
		ORDER BY play_count DESC, last_played_at DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var all []models.TrackStats
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, *stats)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return all, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStats(row scanner) (*models.TrackStats, error) {
	var s models.TrackStats
	err := row.Scan(
		&s.Track.ID,
		&s.Track.Title,
		&s.Track.Artist,
		&s.Track.Thumbnail,
		&s.Track.Duration,
		&s.PlayCount,
		&s.TotalSeconds,
		&s.LastPlayedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stats: %w", err)
	}
	return &s, nil
}
