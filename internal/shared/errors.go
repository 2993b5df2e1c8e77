package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthRequired    = fmt.Errorf("login required")
	ErrAuthFailed      = fmt.Errorf("authentication failed")
	ErrTokenExchange   = fmt.Errorf("token exchange failed")
	ErrVerifierMissing = fmt.Errorf("code verifier not found")
	ErrStateMismatch   = fmt.Errorf("invalid state parameter")
	ErrTimeout         = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest           = fmt.Errorf("API request failed")
	ErrMalformedResponse    = fmt.Errorf("malformed API response")
	ErrServiceUnavailable   = fmt.Errorf("service unavailable")
	ErrPlaylistCreateFailed = fmt.Errorf("failed to create playlist")
	ErrTrackAddFailed       = fmt.Errorf("failed to add tracks")

	// Merge errors
	ErrNotEnoughArtists = fmt.Errorf("not enough artists selected")
	ErrNoTracksFound    = fmt.Errorf("no valid tracks found for the selected artists")
	ErrArtistNotFound   = fmt.Errorf("artist not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
