// Package models defines the value types shared by the playback engine, the engagement dispatcher and the persistence layer.
//
// The package contains two categories of types:
//
// 1. Playback values: immutable data handed between the UI, the queue and the engine
//   - [Track] : a playable item identified by an opaque video ID
//   - [Achievement] : an achievement unlocked by a recorded play
//   - [PlayOutcome] : the result of recording a play with the gamification service
//
// 2. Persisted records: rows read back from the local database
//   - [PlayRecord] : one entry of the listening history
//   - [TrackStats] : aggregate play counts per track
//   - [Ledger] : XP, level and totals for a user
package models
