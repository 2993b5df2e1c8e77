package services

import (
	"context"

	"github.com/desertthunder/mergemix/internal/models"
)

// TokenSource supplies the bearer token for API calls. ok is false before login.
type TokenSource interface {
	AccessToken() (token string, ok bool)
}

// StaticToken is a [TokenSource] for a fixed token. The empty string reports no token.
type StaticToken string

func (s StaticToken) AccessToken() (string, bool) {
	return string(s), s != ""
}

// ArtistSearcher looks up artists by free-text query.
type ArtistSearcher interface {
	SearchArtists(ctx context.Context, query string) (*models.ArtistSearchResult, error)
}

// TrackProvider returns an artist's top tracks in provider popularity order.
type TrackProvider interface {
	TopTracks(ctx context.Context, artistID string, limit int) ([]models.Track, error)
}

// PlaylistCreator creates a playlist for the current user holding uris in order.
type PlaylistCreator interface {
	CreatePlaylist(ctx context.Context, name string, uris []string) (*models.Playlist, error)
}

// ProfileFetcher returns the authenticated user's profile.
type ProfileFetcher interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// Provider is everything mergemix needs from a music service.
type Provider interface {
	ArtistSearcher
	TrackProvider
	PlaylistCreator
	ProfileFetcher
}
