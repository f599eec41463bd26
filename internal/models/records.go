package models

import "time"

// PlayRecord is one row of the local listening history.
type PlayRecord struct {
	ID       string    `json:"id"`
	Sequence int       `json:"-"`
	Track    Track     `json:"track"`
	PlayedAt time.Time `json:"playedAt"`
}

// TrackStats aggregates every recorded play of a single track.
type TrackStats struct {
	Track        Track     `json:"track"`
	PlayCount    int       `json:"playCount"`
	TotalSeconds int       `json:"totalSeconds"`
	LastPlayedAt time.Time `json:"lastPlayedAt"`
}

// Ledger is a user's gamification totals.
type Ledger struct {
	UserID          string    `json:"userId"`
	XP              int       `json:"xp"`
	Level           int       `json:"level"`
	Plays           int       `json:"plays"`
	SecondsListened int       `json:"secondsListened"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
