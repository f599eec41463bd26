package player

import (
	"slices"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/samber/lo"
)

// Queue is an ordered list of tracks with a cursor.
//
// The cursor is -1 or a valid index. Queue is not safe for concurrent use; the engine guards it.
type Queue struct {
	tracks []models.Track
	cursor int
}

// NewQueue returns a queue over a copy of tracks with the cursor at start.
// An out of range start selects the first track; an empty queue has cursor -1.
func NewQueue(tracks []models.Track, start int) Queue {
	q := Queue{tracks: slices.Clone(tracks), cursor: -1}
	if len(q.tracks) == 0 {
		return q
	}
	if start < 0 || start >= len(q.tracks) {
		start = 0
	}
	q.cursor = start
	return q
}

func (q Queue) Len() int { return len(q.tracks) }

func (q Queue) Cursor() int { return q.cursor }

// Tracks returns a copy of the queued tracks.
func (q Queue) Tracks() []models.Track { return slices.Clone(q.tracks) }

// Current returns the track at the cursor.
func (q Queue) Current() (models.Track, bool) {
	if q.cursor < 0 || q.cursor >= len(q.tracks) {
		return models.Track{}, false
	}
	return q.tracks[q.cursor], true
}

// IndexOf returns the index of the first track with id, or -1.
func (q Queue) IndexOf(id string) int {
	return slices.IndexFunc(q.tracks, func(t models.Track) bool { return t.ID == id })
}

// NextIndex is the cursor after advancing with wraparound. An unset cursor advances to 0.
func (q Queue) NextIndex() int {
	if len(q.tracks) == 0 {
		return -1
	}
	return (q.cursor + 1) % len(q.tracks)
}

// PrevIndex is the cursor after stepping back with wraparound to the last track.
func (q Queue) PrevIndex() int {
	n := len(q.tracks)
	if n == 0 {
		return -1
	}
	if q.cursor <= 0 {
		return n - 1
	}
	return q.cursor - 1
}

// Seek moves the cursor to i, which must be a valid index.
func (q *Queue) Seek(i int) bool {
	if i < 0 || i >= len(q.tracks) {
		return false
	}
	q.cursor = i
	return true
}

// Shuffle permutes the queue, keeping the cursor on the track it pointed at.
func (q *Queue) Shuffle() {
	n := len(q.tracks)
	if n < 2 {
		return
	}

	perm := lo.Shuffle(lo.Range(n))
	shuffled := lo.Map(perm, func(i int, _ int) models.Track { return q.tracks[i] })

	if q.cursor >= 0 {
		q.cursor = lo.IndexOf(perm, q.cursor)
	}
	q.tracks = shuffled
}

// Clear unsets the cursor, keeping the tracks.
func (q *Queue) Clear() {
	q.cursor = -1
}
