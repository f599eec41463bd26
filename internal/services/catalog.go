// Catalog lookups through the music proxy.
//
// The proxy wraps a YouTube Music client and returns its JSON shapes unchanged.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/samber/lo"
)

const defaultCatalogBaseURL = "http://localhost:8080"

// YouTubeImage represents an image/thumbnail from YouTube Music.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
	Thumbnails  []YouTubeImage  `json:"thumbnails"`
}

// Track converts the proxy payload to a playable track.
//
// Artists are joined with ", ". The largest thumbnail wins. A missing display duration
// is rebuilt from duration_seconds.
func (t YouTubeTrack) Track() models.Track {
	names := lo.FilterMap(t.Artists, func(a YouTubeArtist, _ int) (string, bool) {
		return a.Name, a.Name != ""
	})

	duration := t.Duration
	if duration == "" && t.DurationSec > 0 {
		duration = models.FormatDuration(t.DurationSec)
	}

	var thumbnail string
	if len(t.Thumbnails) > 0 {
		thumbnail = lo.MaxBy(t.Thumbnails, func(a, b YouTubeImage) bool { return a.Width > b.Width }).URL
	}

	return models.Track{
		ID:        t.VideoID,
		Title:     t.Title,
		Artist:    strings.Join(names, ", "),
		Thumbnail: thumbnail,
		Duration:  duration,
	}
}

// YouTubePlaylist represents a playlist from YouTube Music.
type YouTubePlaylist struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TrackCount  int            `json:"trackCount"`
	Tracks      []YouTubeTrack `json:"tracks,omitempty"`
}

// Playlist is a named list of playable tracks.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Tracks      []models.Track
}

// CatalogService searches tracks and fetches playlists from the proxy.
type CatalogService struct {
	api *APIService
}

// NewCatalogService creates a catalog client for the proxy at baseURL.
func NewCatalogService(baseURL string, client *http.Client) *CatalogService {
	if baseURL == "" {
		baseURL = defaultCatalogBaseURL
	}
	return &CatalogService{api: NewAPIService(baseURL, client)}
}

// Search calls GET /api/search. Results without a video ID are dropped.
func (c *CatalogService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidArgument)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("filter", "songs")
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var results []YouTubeTrack
	if err := c.api.Do(ctx, http.MethodGet, "/api/search?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}

	tracks := playable(results)
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

// Playlist calls GET /api/playlists/{id}.
func (c *CatalogService) Playlist(ctx context.Context, id string) (*Playlist, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	resp, err := c.api.Get(ctx, "/api/playlists/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: playlist %s: status %d", shared.ErrAPIRequest, id, resp.StatusCode)
	}

	var yt YouTubePlaylist
	if err := json.Unmarshal(resp.Body, &yt); err != nil {
		return nil, fmt.Errorf("%w: failed to decode playlist: %v", shared.ErrAPIRequest, err)
	}

	return &Playlist{
		ID:          yt.ID,
		Name:        yt.Title,
		Description: yt.Description,
		Tracks:      playable(yt.Tracks),
	}, nil
}

func playable(results []YouTubeTrack) []models.Track {
	return lo.FilterMap(results, func(t YouTubeTrack, _ int) (models.Track, bool) {
		return t.Track(), t.VideoID != ""
	})
}
