package models

import "time"

// Achievement is an achievement unlocked by a recorded play.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	UnlockedAt  time.Time `json:"unlockedAt,omitzero"`
}

// PlayOutcome is the gamification response to a recorded play.
//
// The zero value means "no achievements, not leveled up".
type PlayOutcome struct {
	Achievements []Achievement `json:"achievements"`
	LeveledUp    bool          `json:"leveledUp"`
	Level        int           `json:"level,omitempty"`
	XP           int           `json:"xp,omitempty"`
}

// Empty reports whether the outcome carries nothing to surface.
func (o PlayOutcome) Empty() bool {
	return len(o.Achievements) == 0 && !o.LeveledUp
}
