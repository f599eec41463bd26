package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/samber/lo"
)

// HistoryClient appends plays to the hosted listening history.
type HistoryClient struct {
	api    *APIService
	userID string
}

func NewHistoryClient(api *APIService, userID string) *HistoryClient {
	return &HistoryClient{api: api, userID: userID}
}

type historyRequest struct {
	UserID string       `json:"userId,omitempty"`
	Track  models.Track `json:"track"`
}

// AddToHistory calls POST /api/history.
func (c *HistoryClient) AddToHistory(ctx context.Context, track models.Track) error {
	return c.api.Do(ctx, http.MethodPost, "/api/history", historyRequest{UserID: c.userID, Track: track}, nil)
}

// StatsClient records plays with the hosted analytics endpoint.
type StatsClient struct {
	api *APIService
}

func NewStatsClient(api *APIService) *StatsClient {
	return &StatsClient{api: api}
}

type playRequest struct {
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"durationSeconds"`
}

// RecordPlay calls POST /api/stats/play.
func (c *StatsClient) RecordPlay(ctx context.Context, track models.Track) error {
	req := playRequest{
		VideoID:         track.ID,
		Title:           track.Title,
		Artist:          track.Artist,
		DurationSeconds: track.Seconds(),
	}
	return c.api.Do(ctx, http.MethodPost, "/api/stats/play", req, nil)
}

// GamificationClient records plays for XP and achievements.
type GamificationClient struct {
	api *APIService
}

func NewGamificationClient(api *APIService) *GamificationClient {
	return &GamificationClient{api: api}
}

type gamificationRequest struct {
	UserID          string `json:"userId"`
	DurationSeconds int    `json:"durationSeconds"`
}

// gamificationResponse accepts both names the hosted service uses for the
// unlocked list. Entries without an id are dropped.
type gamificationResponse struct {
	NewlyUnlocked []models.Achievement `json:"newlyUnlockedAchievements"`
	New           []models.Achievement `json:"newAchievements"`
	LeveledUp     bool                 `json:"leveledUp"`
	Level         int                  `json:"level"`
	XP            int                  `json:"xp"`
}

func (r gamificationResponse) outcome() models.PlayOutcome {
	unlocked := lo.Filter(append(r.NewlyUnlocked, r.New...), func(a models.Achievement, _ int) bool {
		return a.ID != ""
	})
	return models.PlayOutcome{
		Achievements: lo.UniqBy(unlocked, func(a models.Achievement) string { return a.ID }),
		LeveledUp:    r.LeveledUp,
		Level:        r.Level,
		XP:           r.XP,
	}
}

// RecordPlay calls POST /api/gamification/play.
//
// A non-2xx or malformed response yields the zero outcome together with the error.
func (c *GamificationClient) RecordPlay(ctx context.Context, userID string, durationSeconds int) (models.PlayOutcome, error) {
	var resp gamificationResponse
	req := gamificationRequest{UserID: userID, DurationSeconds: durationSeconds}

	if err := c.api.Do(ctx, http.MethodPost, "/api/gamification/play", req, &resp); err != nil {
		return models.PlayOutcome{}, err
	}
	return resp.outcome(), nil
}
