package engagement

import (
	"slices"
	"sync"

	"github.com/desertthunder/ytplay/internal/models"
)

// LevelUp is a pending level-up notice.
type LevelUp struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// Inbox holds unlocked achievements until the UI dismisses them.
//
// An achievement ID is accepted once per inbox; later deliveries of the same ID are ignored
// even after it was dismissed.
type Inbox struct {
	mu      sync.Mutex
	items   []models.Achievement
	seen    map[string]struct{}
	levelUp *LevelUp
	updates chan struct{}
}

func NewInbox() *Inbox {
	return &Inbox{
		seen:    make(map[string]struct{}),
		updates: make(chan struct{}, 1),
	}
}

// Deliver adds the achievements of outcome and records a level-up. It returns how many
// achievements were new.
func (b *Inbox) Deliver(outcome models.PlayOutcome) int {
	b.mu.Lock()
	added := b.addLocked(outcome.Achievements)
	if outcome.LeveledUp {
		b.levelUp = &LevelUp{Level: outcome.Level, XP: outcome.XP}
	}
	changed := added > 0 || outcome.LeveledUp
	b.mu.Unlock()

	if changed {
		b.signal()
	}
	return added
}

// Add appends achievements not seen before.
func (b *Inbox) Add(achievements ...models.Achievement) int {
	b.mu.Lock()
	added := b.addLocked(achievements)
	b.mu.Unlock()

	if added > 0 {
		b.signal()
	}
	return added
}

func (b *Inbox) addLocked(achievements []models.Achievement) int {
	added := 0
	for _, a := range achievements {
		if a.ID == "" {
			continue
		}
		if _, ok := b.seen[a.ID]; ok {
			continue
		}
		b.seen[a.ID] = struct{}{}
		b.items = append(b.items, a)
		added++
	}
	return added
}

// Dismiss removes one achievement. It reports whether id was pending.
func (b *Inbox) Dismiss(id string) bool {
	b.mu.Lock()
	i := slices.IndexFunc(b.items, func(a models.Achievement) bool { return a.ID == id })
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	b.items = slices.Delete(b.items, i, i+1)
	b.mu.Unlock()

	b.signal()
	return true
}

// Achievements returns the pending achievements, oldest first.
func (b *Inbox) Achievements() []models.Achievement {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// LevelUp returns the pending level-up notice.
func (b *Inbox) LevelUp() (LevelUp, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.levelUp == nil {
		return LevelUp{}, false
	}
	return *b.levelUp, true
}

func (b *Inbox) DismissLevelUp() {
	b.mu.Lock()
	had := b.levelUp != nil
	b.levelUp = nil
	b.mu.Unlock()

	if had {
		b.signal()
	}
}

// Updates receives a value after any change. Signals coalesce.
func (b *Inbox) Updates() <-chan struct{} { return b.updates }

func (b *Inbox) signal() {
	select {
	case b.updates <- struct{}{}:
	default:
	}
}
