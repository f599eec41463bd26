// Package repositories implements SQLite persistence for local listening data.
//
// Key Implementations:
//   - [PlayHistoryRepository] : Recently played tracks, newest first
//   - [StatsRepository] : Per-track play counts and listening time
//   - [LedgerRepository] : Local gamification ledger (XP, levels, achievements)
//
// The history and stats repositories satisfy the engagement dispatcher's recorder
// interfaces and the ledger satisfies its gamifier, so a player without a hosted API
// still records plays.
//
// Sequence numbers provide stable ordering for history rows independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
