package services

import (
	"context"

	"github.com/desertthunder/ytplay/internal/models"
)

// Catalog finds playable tracks.
type Catalog interface {
	// Search returns at most limit tracks matching query. A limit of 0 means the proxy default.
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Playlist fetches a playlist with its tracks.
	// Returns [shared.ErrPlaylistNotFound] when the proxy does not know id.
	Playlist(ctx context.Context, id string) (*Playlist, error)
}

var _ Catalog = (*CatalogService)(nil)
