// Package server exposes the playback engine over a local HTTP control API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] and [Recover] are the stock middleware.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Control Handler
//
// [ControlHandler] maps the engine's public operations to JSON endpoints:
//
//	GET  /player/state
//	POST /player/play         {"track": {...}, "queue": [...]}  (empty body resumes)
//	POST /player/queue        {"tracks": [...], "start": 0}
//	POST /player/pause | /player/toggle | /player/next | /player/previous | /player/shuffle
//	POST /player/seek         {"seconds": 42}
//	POST /player/volume       {"volume": 80}
//	POST /player/visibility   {"hidden": true}
//	GET  /achievements
//	POST /achievements/dismiss {"id": "first-play"} or {"levelUp": true}
//
// Every player endpoint answers with the resulting [player.Snapshot]. Commands are applied
// synchronously to engine state, so the snapshot already reflects them even though the
// player itself catches up asynchronously.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
