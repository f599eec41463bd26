package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Track is a playable item. Tracks are values: two tracks with the same ID refer to the same media.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Duration  string `json:"duration,omitempty"` // display string such as "3:45" or "1:02:03"
}

// Seconds converts the display duration to whole seconds.
//
// Accepts "m:ss", "mm:ss" and "h:mm:ss". Anything else yields 0.
func (t Track) Seconds() int {
	return ParseDuration(t.Duration)
}

// String returns "Artist - Title", or just the title when the artist is unknown.
func (t Track) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// ParseDuration parses a colon separated display duration into seconds.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		if i > 0 && n >= 60 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// FormatDuration renders seconds as "m:ss", or "h:mm:ss" past the hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
