// Package player implements the playback engine.
//
// An [Engine] owns at most one [Handle] created by an injected [SDK]. It keeps an explicit
// state machine (Idle, Loading, Playing, Paused and the transient Ended), a play [Queue]
// with a cursor, a position tracker that polls the handle while playing, and a background
// guard that keeps audio alive while the host is hidden.
//
// SDK callbacks arrive on arbitrary goroutines. The engine serialises them together with
// every handle call on a single event loop goroutine, so a Handle never sees concurrent use.
// Public operations update engine state synchronously and return without waiting on the
// handle.
//
// Side effects (history, stats, gamification) are not the engine's concern; it emits
// [Emitter.TrackStarted] and moves on.
package player
