// Package services implements the HTTP collaborators of the playback engine.
//
// # API Client
//
// [APIService] wraps an [http.Client] for the hosted engagement API. [NewBearerClient]
// builds a client that attaches the configured token through an oauth2 token source.
//
// # Engagement Collaborators
//
// [HistoryClient], [StatsClient] and [GamificationClient] satisfy the engagement
// dispatcher's recorder interfaces. The gamification client maps a non-2xx or malformed
// response to an empty [models.PlayOutcome] alongside the error.
//
// # Catalog
//
// [CatalogService] searches and lists playlists through the music proxy, converting
// [YouTubeTrack] payloads to [models.Track].
//
// # Last.fm
//
// [LastFMScrobbler] publishes "now playing" updates when a track starts.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : HTTP request failed or returned a non-2xx status
//   - [shared.ErrPlaylistNotFound] : Playlist ID not found
//   - [shared.ErrMissingCredentials] : Last.fm session not configured
package services
