// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/mergemix/internal/models"
)

// CreatedPlaylist records one call to [MockProvider.CreatePlaylist].
type CreatedPlaylist struct {
	Name string
	URIs []string
}

// MockProvider is an in-memory music provider satisfying [services.Provider].
//
// Search matches artists whose name contains the query, case-insensitively.
type MockProvider struct {
	Artists []models.Artist
	Tracks  map[string][]models.Track
	User    *models.User

	SearchErr error
	TracksErr map[string]error
	CreateErr error
	UserErr   error

	mu       sync.Mutex
	searches []string
	created  []CreatedPlaylist
}

// NewMockProvider returns a provider whose artists each have count top tracks.
func NewMockProvider(artists []models.Artist, count int) *MockProvider {
	tracks := make(map[string][]models.Track, len(artists))
	for _, a := range artists {
		for i := range count {
			id := fmt.Sprintf("%s-t%d", a.ID, i+1)
			tracks[a.ID] = append(tracks[a.ID], models.Track{
				ID:      id,
				URI:     "spotify:track:" + id,
				Name:    fmt.Sprintf("%s Song %d", a.Name, i+1),
				Artists: []string{a.Name},
			})
		}
	}
	return &MockProvider{Artists: artists, Tracks: tracks, TracksErr: map[string]error{}}
}

func (m *MockProvider) SearchArtists(ctx context.Context, query string) (*models.ArtistSearchResult, error) {
	m.mu.Lock()
	m.searches = append(m.searches, query)
	m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	result := &models.ArtistSearchResult{Items: []models.Artist{}}
	for _, a := range m.Artists {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(query)) {
			result.Items = append(result.Items, a)
		}
	}
	result.Total = len(result.Items)
	result.Limit = len(result.Items)
	return result, nil
}

func (m *MockProvider) TopTracks(ctx context.Context, artistID string, limit int) ([]models.Track, error) {
	if err := m.TracksErr[artistID]; err != nil {
		return nil, err
	}
	tracks := m.Tracks[artistID]
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return append([]models.Track(nil), tracks...), nil
}

func (m *MockProvider) CreatePlaylist(ctx context.Context, name string, uris []string) (*models.Playlist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, CreatedPlaylist{Name: name, URIs: append([]string(nil), uris...)})

	id := fmt.Sprintf("pl%d", len(m.created))
	return &models.Playlist{
		ID:          id,
		Name:        name,
		ExternalURL: "https://open.spotify.com/playlist/" + id,
		TrackCount:  len(uris),
	}, nil
}

func (m *MockProvider) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.User == nil {
		return &models.User{ID: "mock-user"}, nil
	}
	u := *m.User
	return &u, nil
}

// Searches returns the queries received so far.
func (m *MockProvider) Searches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searches...)
}

// Created returns the playlists created so far.
func (m *MockProvider) Created() []CreatedPlaylist {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CreatedPlaylist(nil), m.created...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
