package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

// PlayHistoryRepository stores the local listening history with soft delete support.
type PlayHistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlayHistoryRepository creates a new PlayHistoryRepository with the given database connection
func NewPlayHistoryRepository(db *sql.DB) *PlayHistoryRepository {
	return &PlayHistoryRepository{db: db, now: time.Now}
}

// AddToHistory appends track to the history with a generated ID and sequence
func (r *PlayHistoryRepository) AddToHistory(ctx context.Context, track models.Track) error {
	if track.ID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(ctx, r.db, "plays")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO plays (id, sequence, video_id, title, artist, thumbnail, duration, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		shared.GenerateID(),
		sequence,
		track.ID,
		track.Title,
		track.Artist,
		track.Thumbnail,
		track.Duration,
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert play: %w", err)
	}

	return nil
}

// Recent returns up to limit plays, newest first. A limit of 0 returns everything.
func (r *PlayHistoryRepository) Recent(ctx context.Context, limit int) ([]models.PlayRecord, error) {
	query := `
		SELECT id, sequence, video_id, title, artist, thumbnail, duration, played_at
		FROM plays
		WHERE deleted_at IS NULL
		ORDER BY sequence DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var records []models.PlayRecord
	for rows.Next() {
		var rec models.PlayRecord
		err := rows.Scan(
			&rec.ID,
			&rec.Sequence,
			&rec.Track.ID,
			&rec.Track.Title,
			&rec.Track.Artist,
			&rec.Track.Thumbnail,
			&rec.Track.Duration,
			&rec.PlayedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Delete soft-deletes a play by ID
func (r *PlayHistoryRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE plays
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete play: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: play %s not found or already deleted", shared.ErrTrackNotFound, id)
	}

	return nil
}
