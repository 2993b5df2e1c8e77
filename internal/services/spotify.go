// Spotify Web API implementation of [Provider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mergemix/internal/models"
	"github.com/desertthunder/mergemix/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://api.spotify.com/v1"
	DefaultMarket      = "US"
	DefaultSearchLimit = 5

	// MaxTracksPerRequest is the API limit on URIs per add-tracks call.
	MaxTracksPerRequest = 100
)

type followers struct {
	Total int `json:"total"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a full artist object.
type SpotifyArtist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Genres       []string       `json:"genres"`
	Images       []SpotifyImage `json:"images"`
	Followers    followers      `json:"followers"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// SpotifyArtistPage is the artists page of a search response.
type SpotifyArtistPage struct {
	Items    []SpotifyArtist `json:"items"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
}

// SpotifySearchResponse is the body of GET /search?type=artist.
type SpotifySearchResponse struct {
	Artists *SpotifyArtistPage `json:"artists"`
}

type simpleArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a track object.
type SpotifyTrack struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Artists    []simpleArtist `json:"artists"`
	Popularity int            `json:"popularity"`
	URI        string         `json:"uri"`
}

// SpotifyTopTracksResponse is the body of GET /artists/{id}/top-tracks.
type SpotifyTopTracksResponse struct {
	Tracks []SpotifyTrack `json:"tracks"`
}

// SpotifyUser represents a user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyPlaylist represents the playlist object returned on creation.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	ExternalURLs externalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// SpotifyOpts configures a [SpotifyService]. Zero values fall back to the package defaults.
type SpotifyOpts struct {
	Tokens            TokenSource
	BaseURL           string
	Market            string
	SearchLimit       int
	Description       string
	RollbackOnFailure bool
	Limiter           *rate.Limiter
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// SpotifyService implements [Provider] against the Spotify Web API.
type SpotifyService struct {
	tokens      TokenSource
	baseURL     string
	market      string
	searchLimit int
	description string
	rollback    bool
	limiter     *rate.Limiter
	httpClient  *http.Client
	logger      *log.Logger
}

// NewSpotifyService creates a new Spotify service from opts.
func NewSpotifyService(opts SpotifyOpts) *SpotifyService {
	s := &SpotifyService{
		tokens:      opts.Tokens,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		market:      opts.Market,
		searchLimit: opts.SearchLimit,
		description: opts.Description,
		rollback:    opts.RollbackOnFailure,
		limiter:     opts.Limiter,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}

	if s.tokens == nil {
		s.tokens = StaticToken("")
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.market == "" {
		s.market = DefaultMarket
	}
	if s.searchLimit <= 0 {
		s.searchLimit = DefaultSearchLimit
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// NewLimiter returns a limiter allowing rps requests per second, or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated JSON request to the Spotify API.
//
// body is JSON encoded when non-nil, result is decoded from the response when non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	token, ok := s.tokens.AccessToken()
	if !ok {
		return shared.ErrAuthRequired
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
		}
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		herr := newHTTPError(resp.StatusCode, data)
		s.logger.Warn("spotify request failed", "method", method, "endpoint", endpoint, "status", herr.Status, "message", herr.Message)
		return herr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// SearchArtists searches for artists matching query and returns up to the configured limit in provider order.
func (s *SpotifyService) SearchArtists(ctx context.Context, query string) (*models.ArtistSearchResult, error) {
	if _, ok := s.tokens.AccessToken(); !ok {
		return nil, shared.ErrAuthRequired
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "artist")
	params.Set("limit", strconv.Itoa(s.searchLimit))

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search", params, nil, &response); err != nil {
		return nil, err
	}

	if response.Artists == nil {
		return nil, fmt.Errorf("%w: search response has no artists page", shared.ErrMalformedResponse)
	}

	page := response.Artists
	result := &models.ArtistSearchResult{
		Items:  make([]models.Artist, 0, len(page.Items)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if page.Next != nil {
		result.Next = *page.Next
	}
	if page.Previous != nil {
		result.Previous = *page.Previous
	}

	for i, a := range page.Items {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: artist %d has no id", shared.ErrMalformedResponse, i)
		}
		result.Items = append(result.Items, a.toModel())
	}

	return result, nil
}

// TopTracks returns the first limit top tracks of an artist in the configured market.
// A non-positive limit returns everything the API sent.
func (s *SpotifyService) TopTracks(ctx context.Context, artistID string, limit int) ([]models.Track, error) {
	if artistID == "" {
		return nil, fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	params := url.Values{}
	params.Set("market", s.market)

	var response SpotifyTopTracksResponse
	endpoint := fmt.Sprintf("/artists/%s/top-tracks", url.PathEscape(artistID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, params, nil, &response); err != nil {
		return nil, err
	}

	if response.Tracks == nil {
		return nil, fmt.Errorf("%w: top tracks response has no tracks", shared.ErrMalformedResponse)
	}

	tracks := response.Tracks
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}

	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.toModel())
	}
	return out, nil
}

// CreatePlaylist creates a public playlist named name and adds uris to it in order.
//
// Failures to create are wrapped with [shared.ErrPlaylistCreateFailed], failures to add tracks with
// [shared.ErrTrackAddFailed]; both also wrap the underlying [*HTTPError]. When rollback is enabled the
// playlist is unfollowed after a failed add.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string, uris []string) (*models.Playlist, error) {
	body := createPlaylistRequest{Name: name, Description: s.description, Public: true}

	var created SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, "/me/playlists", nil, body, &created); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPlaylistCreateFailed, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: %w: playlist has no id", shared.ErrPlaylistCreateFailed, shared.ErrMalformedResponse)
	}

	s.logger.Debug("created playlist", "id", created.ID, "name", created.Name)

	if err := s.addTracks(ctx, created.ID, uris); err != nil {
		if s.rollback {
			s.unfollow(ctx, created.ID)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrTrackAddFailed, err)
	}

	playlist := created.toModel()
	playlist.TrackCount = len(uris)
	return &playlist, nil
}

func (s *SpotifyService) addTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(uris); start += MaxTracksPerRequest {
		end := min(start+MaxTracksPerRequest, len(uris))

		var snap snapshotResponse
		if err := s.doRequest(ctx, http.MethodPost, endpoint, nil, addTracksRequest{URIs: uris[start:end]}, &snap); err != nil {
			return err
		}
	}
	return nil
}

// unfollow removes a playlist from the user's library. Errors are logged only.
func (s *SpotifyService) unfollow(ctx context.Context, playlistID string) {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil, nil); err != nil {
		s.logger.Error("failed to roll back playlist", "id", playlistID, "error", err)
		return
	}
	s.logger.Info("rolled back playlist", "id", playlistID)
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile has no id", shared.ErrMalformedResponse)
	}

	out := &models.User{ID: user.ID, DisplayName: user.DisplayName}
	if len(user.Images) > 0 {
		out.ImageURL = user.Images[0].URL
	}
	return out, nil
}

func (a SpotifyArtist) toModel() models.Artist {
	artist := models.Artist{
		ID:          a.ID,
		Name:        a.Name,
		Followers:   a.Followers.Total,
		Genres:      a.Genres,
		ExternalURL: a.ExternalURLs.Spotify,
	}
	if len(a.Images) > 0 {
		artist.ImageURL = a.Images[0].URL
	}
	return artist
}

func (t SpotifyTrack) toModel() models.Track {
	track := models.Track{ID: t.ID, URI: t.URI, Name: t.Name, Popularity: t.Popularity}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, a.Name)
	}
	return track
}

func (p SpotifyPlaylist) toModel() models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Public:      p.Public,
		ExternalURL: p.ExternalURLs.Spotify,
	}
}
