package ui

import (
	"sort"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

var _ list.Item = queueItem{}

// queueItem wraps a queued [models.Track] to implement [list.Item].
// index is the track's position in the engine queue, which survives filtering.
type queueItem struct {
	track   models.Track
	index   int
	current bool
}

func (i queueItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }
func (i queueItem) Title() string {
	if i.current {
		return "▶ " + i.track.Title
	}
	return i.track.Title
}
func (i queueItem) Description() string {
	if i.track.Duration == "" {
		return i.track.Artist
	}
	return i.track.Artist + " • " + i.track.Duration
}

func queueItems(tracks []models.Track, cursor int) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = queueItem{track: t, index: i, current: i == cursor}
	}
	return items
}

// fuzzyFilter ranks queue entries with fuzzysearch, closest matches first.
// Matched character positions are not reported, so the list does not underline them.
func fuzzyFilter(term string, targets []string) []list.Rank {
	ranks := fuzzy.RankFindNormalizedFold(term, targets)
	sort.Stable(ranks)

	result := make([]list.Rank, len(ranks))
	for i, r := range ranks {
		result[i] = list.Rank{Index: r.OriginalIndex}
	}
	return result
}

func newQueueList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Queue"
	l.Filter = fuzzyFilter
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return l
}
