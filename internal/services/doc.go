// Package services implements the Spotify Web API client used by mergemix.
//
// # Provider Interfaces
//
// Core packages depend on the narrow interfaces in services.go ([ArtistSearcher], [TrackProvider],
// [PlaylistCreator], [ProfileFetcher]) rather than on [SpotifyService] directly, which keeps the merge
// engine and the auth flow testable with in-memory fakes.
//
// # Authentication
//
// [SpotifyService] never performs the OAuth exchange itself. It reads a bearer token from a [TokenSource]
// on every request and fails with [shared.ErrAuthRequired] when none is available.
//
// # Response Schemas
//
// Every endpoint decodes into a typed schema and validates it before mapping to [models] types.
// Missing required fields surface as [shared.ErrMalformedResponse].
//
// # Error Handling
//
// Non-2xx responses become [*HTTPError] carrying the status and the provider's error.message.
// Playlist creation wraps it with [shared.ErrPlaylistCreateFailed] or [shared.ErrTrackAddFailed], so callers can
// use both errors.Is and errors.As on the result.
package services
