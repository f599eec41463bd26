// Package ui implements the now-playing terminal interface using bubbletea's Elm architecture.
//
// The (view) [Model] renders a single screen:
//  1. Current track, state and a progress bar
//  2. Pending achievement toasts and a level-up banner
//  3. The queue, filterable with "/" (fuzzy, case-insensitive)
//
// Engine snapshots and inbox changes arrive as messages through blocking commands that re-arm
// after every delivery, so the model never polls. Terminal focus and blur (reported when the
// program runs with [tea.WithReportFocus]) drive the engine's background-visibility flag.
//
// Keys: space toggles playback, n/p skip, ←/→ seek 10s, +/- change volume, s shuffles,
// enter jumps to the selected queue entry, d dismisses the oldest notice and q quits.
package ui
