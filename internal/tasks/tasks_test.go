package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mergemix/internal/models"
	"github.com/desertthunder/mergemix/internal/selection"
	"github.com/desertthunder/mergemix/internal/services"
	"github.com/desertthunder/mergemix/internal/shared"
)

type createCall struct {
	name string
	uris []string
}

// mockProvider is a test double for [MergeProvider].
type mockProvider struct {
	mu        sync.Mutex
	tracks    map[string][]models.Track
	errs      map[string]error
	topCalls  []string
	creates   []createCall
	createErr error

	// barrier, when set, makes every TopTracks call wait until all expected calls are in flight.
	barrier *sync.WaitGroup
}

func (m *mockProvider) TopTracks(ctx context.Context, artistID string, limit int) ([]models.Track, error) {
	m.mu.Lock()
	m.topCalls = append(m.topCalls, artistID)
	m.mu.Unlock()

	if m.barrier != nil {
		m.barrier.Done()
		ready := make(chan struct{})
		go func() {
			m.barrier.Wait()
			close(ready)
		}()
		select {
		case <-ready:
		case <-time.After(2 * time.Second):
			return nil, errors.New("top tracks were not requested concurrently")
		}
	}

	if err := m.errs[artistID]; err != nil {
		return nil, err
	}
	return m.tracks[artistID], nil
}

func (m *mockProvider) CreatePlaylist(ctx context.Context, name string, uris []string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, createCall{name: name, uris: slices.Clone(uris)})
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Playlist{ID: "pl-1", Name: name, Public: true, TrackCount: len(uris)}, nil
}

func tracksFor(id string, n int) []models.Track {
	out := make([]models.Track, n)
	for i := range out {
		out[i] = models.Track{ID: fmt.Sprintf("%s-t%d", id, i), URI: fmt.Sprintf("spotify:track:%s-t%d", id, i)}
	}
	return out
}

func threeArtists() *selection.Set {
	return selection.New(
		models.Artist{ID: "a1", Name: "A"},
		models.Artist{ID: "a2", Name: "B"},
		models.Artist{ID: "a3", Name: "C"},
	)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func sortedCopy(s []string) []string {
	c := slices.Clone(s)
	slices.Sort(c)
	return c
}

func TestMergeEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("Gate", func(t *testing.T) {
		tc := []struct {
			name    string
			artists int
		}{
			{name: "empty", artists: 0},
			{name: "two", artists: 2},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				provider := &mockProvider{}
				sel := selection.New()
				for i := range tt.artists {
					sel.Add(models.Artist{ID: fmt.Sprintf("a%d", i), Name: "x"})
				}

				_, err := NewMergeEngine(provider, MergeOpts{Logger: quietLogger()}).CreateMergedPlaylist(ctx, sel, nil)
				if !errors.Is(err, shared.ErrNotEnoughArtists) {
					t.Fatalf("expected ErrNotEnoughArtists, got %v", err)
				}
				if len(provider.topCalls) != 0 || len(provider.creates) != 0 {
					t.Error("no provider call expected below the threshold")
				}
			})
		}
	})

	t.Run("Merges three artists", func(t *testing.T) {
		var barrier sync.WaitGroup
		barrier.Add(3)
		provider := &mockProvider{
			tracks: map[string][]models.Track{
				"a1": tracksFor("a1", 10),
				"a2": tracksFor("a2", 2),
				"a3": tracksFor("a3", 2),
			},
			barrier: &barrier,
		}
		progress := make(chan ProgressUpdate, 16)

		engine := NewMergeEngine(provider, MergeOpts{Logger: quietLogger()})
		playlist, err := engine.CreateMergedPlaylist(ctx, threeArtists(), progress)
		if err != nil {
			t.Fatalf("CreateMergedPlaylist() error = %v", err)
		}
		close(progress)

		if playlist.ID != "pl-1" {
			t.Errorf("unexpected playlist %+v", playlist)
		}
		if got := sortedCopy(provider.topCalls); strings.Join(got, ",") != "a1,a2,a3" {
			t.Errorf("top tracks requested for %v", provider.topCalls)
		}
		if len(provider.creates) != 1 {
			t.Fatalf("expected 1 create call, got %d", len(provider.creates))
		}

		call := provider.creates[0]
		if call.name != "MergedMix: A, B, C" {
			t.Errorf("name = %q", call.name)
		}
		want := []string{
			"spotify:track:a1-t0", "spotify:track:a1-t1",
			"spotify:track:a2-t0", "spotify:track:a2-t1",
			"spotify:track:a3-t0", "spotify:track:a3-t1",
		}
		if !slices.Equal(sortedCopy(call.uris), want) {
			t.Errorf("uris are not a permutation of the capped top tracks: %v", call.uris)
		}

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		wantPhases := []Phase{FetchTopTracks, FetchTopTracks, FetchTopTracks, ShuffleTracks, CreatePlaylist, Complete}
		if !slices.Equal(phases, wantPhases) {
			t.Errorf("phases = %v, want %v", phases, wantPhases)
		}
	})

	t.Run("Drops tracks without uri", func(t *testing.T) {
		provider := &mockProvider{tracks: map[string][]models.Track{
			"a1": {{ID: "x", URI: ""}, {ID: "y", URI: "spotify:track:y"}},
			"a2": {},
			"a3": {{ID: "z", URI: "spotify:track:z"}},
		}}

		_, err := NewMergeEngine(provider, MergeOpts{Logger: quietLogger()}).CreateMergedPlaylist(ctx, threeArtists(), nil)
		if err != nil {
			t.Fatalf("CreateMergedPlaylist() error = %v", err)
		}
		if got := sortedCopy(provider.creates[0].uris); !slices.Equal(got, []string{"spotify:track:y", "spotify:track:z"}) {
			t.Errorf("uris = %v", got)
		}
	})

	t.Run("No tracks", func(t *testing.T) {
		provider := &mockProvider{tracks: map[string][]models.Track{}}

		_, err := NewMergeEngine(provider, MergeOpts{Logger: quietLogger()}).CreateMergedPlaylist(ctx, threeArtists(), nil)
		if !errors.Is(err, shared.ErrNoTracksFound) {
			t.Fatalf("expected ErrNoTracksFound, got %v", err)
		}
		if len(provider.creates) != 0 {
			t.Error("playlist must not be created without tracks")
		}
	})

	t.Run("Fetch failure", func(t *testing.T) {
		herr := &services.HTTPError{Status: 500, Message: "boom"}
		provider := &mockProvider{
			tracks: map[string][]models.Track{"a1": tracksFor("a1", 2), "a3": tracksFor("a3", 2)},
			errs:   map[string]error{"a2": herr},
		}

		_, err := NewMergeEngine(provider, MergeOpts{Logger: quietLogger()}).CreateMergedPlaylist(ctx, threeArtists(), nil)
		var got *services.HTTPError
		if !errors.As(err, &got) || got.Status != 500 {
			t.Fatalf("expected HTTPError, got %v", err)
		}
		if len(provider.creates) != 0 {
			t.Error("playlist must not be created after a failed fetch")
		}
	})

	t.Run("Create failure is returned unchanged", func(t *testing.T) {
		createErr := fmt.Errorf("%w: %w", shared.ErrTrackAddFailed, &services.HTTPError{Status: 400, Message: "bad"})
		provider := &mockProvider{
			tracks:    map[string][]models.Track{"a1": tracksFor("a1", 2), "a2": tracksFor("a2", 2), "a3": tracksFor("a3", 2)},
			createErr: createErr,
		}

		_, err := NewMergeEngine(provider, MergeOpts{Logger: quietLogger()}).CreateMergedPlaylist(ctx, threeArtists(), nil)
		if err != createErr {
			t.Errorf("expected the create error unchanged, got %v", err)
		}
	})

	t.Run("Configured thresholds", func(t *testing.T) {
		provider := &mockProvider{tracks: map[string][]models.Track{"a1": tracksFor("a1", 5), "a2": tracksFor("a2", 5)}}
		sel := selection.New(models.Artist{ID: "a1", Name: "A"}, models.Artist{ID: "a2", Name: "B"})

		engine := NewMergeEngine(provider, MergeOpts{RequiredArtists: 2, TracksPerArtist: 3, Logger: quietLogger()})
		if engine.Required() != 2 {
			t.Errorf("Required() = %d", engine.Required())
		}
		if _, err := engine.CreateMergedPlaylist(ctx, sel, nil); err != nil {
			t.Fatalf("CreateMergedPlaylist() error = %v", err)
		}
		if n := len(provider.creates[0].uris); n != 6 {
			t.Errorf("expected 6 uris, got %d", n)
		}
	})

	t.Run("Progress never blocks", func(t *testing.T) {
		provider := &mockProvider{tracks: map[string][]models.Track{"a1": tracksFor("a1", 2), "a2": tracksFor("a2", 2), "a3": tracksFor("a3", 2)}}
		progress := make(chan ProgressUpdate)

		done := make(chan error, 1)
		go func() {
			_, err := NewMergeEngine(provider, MergeOpts{Logger: quietLogger()}).CreateMergedPlaylist(ctx, threeArtists(), progress)
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("CreateMergedPlaylist() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("merge blocked on an unread progress channel")
		}
	})
}

// spotifyFixture serves the three endpoints a merge touches.
type spotifyFixture struct {
	mu      sync.Mutex
	creates []map[string]any
	adds    [][]string
	failFor string
}

func (f *spotifyFixture) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /artists/{id}/top-tracks", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == f.failFor {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"status":500,"message":"Server error"}}`)
			return
		}
		fmt.Fprintf(w, `{"tracks":[{"id":"%[1]s-1","uri":"spotify:track:%[1]s-1"},{"id":"%[1]s-2","uri":"spotify:track:%[1]s-2"}]}`, id)
	})
	mux.HandleFunc("POST /me/playlists", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.creates = append(f.creates, body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"merged-123","name":"x","public":true}`)
	})
	mux.HandleFunc("POST /playlists/merged-123/tracks", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs []string `json:"uris"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.adds = append(f.adds, body.URIs)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"snapshot_id":"s"}`)
	})
	return mux
}

func TestMergeAgainstSpotifyAPI(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, failFor string) (*spotifyFixture, *MergeEngine) {
		t.Helper()
		fixture := &spotifyFixture{failFor: failFor}
		server := httptest.NewServer(fixture.handler())
		t.Cleanup(server.Close)

		svc := services.NewSpotifyService(services.SpotifyOpts{
			Tokens:  services.StaticToken("tok"),
			BaseURL: server.URL,
			Logger:  quietLogger(),
		})
		return fixture, NewMergeEngine(svc, MergeOpts{Logger: quietLogger()})
	}

	t.Run("End to end", func(t *testing.T) {
		fixture, engine := setup(t, "")

		playlist, err := engine.CreateMergedPlaylist(ctx, threeArtists(), nil)
		if err != nil {
			t.Fatalf("CreateMergedPlaylist() error = %v", err)
		}
		if playlist.ID != "merged-123" {
			t.Errorf("playlist id = %q", playlist.ID)
		}

		if len(fixture.creates) != 1 || fixture.creates[0]["name"] != "MergedMix: A, B, C" {
			t.Fatalf("unexpected create calls %v", fixture.creates)
		}
		if len(fixture.adds) != 1 {
			t.Fatalf("expected 1 add call, got %d", len(fixture.adds))
		}
		want := []string{
			"spotify:track:a1-1", "spotify:track:a1-2",
			"spotify:track:a2-1", "spotify:track:a2-2",
			"spotify:track:a3-1", "spotify:track:a3-2",
		}
		if !slices.Equal(sortedCopy(fixture.adds[0]), want) {
			t.Errorf("added uris are not a permutation: %v", fixture.adds[0])
		}
	})

	t.Run("One artist fails", func(t *testing.T) {
		fixture, engine := setup(t, "a2")

		_, err := engine.CreateMergedPlaylist(ctx, threeArtists(), nil)
		var herr *services.HTTPError
		if !errors.As(err, &herr) || herr.Status != 500 || herr.Message != "Server error" {
			t.Fatalf("expected HTTPError, got %v", err)
		}
		if len(fixture.creates) != 0 || len(fixture.adds) != 0 {
			t.Error("neither create nor add may be called")
		}
	})
}

func TestShuffle(t *testing.T) {
	t.Run("Deterministic sources", func(t *testing.T) {
		tc := []struct {
			name string
			intn func(int) int
			want string
		}{
			{name: "always zero", intn: func(int) int { return 0 }, want: "b,c,d,a"},
			{name: "always last", intn: func(n int) int { return n - 1 }, want: "a,b,c,d"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				items := []string{"a", "b", "c", "d"}
				Shuffle(items, tt.intn)
				if got := strings.Join(items, ","); got != tt.want {
					t.Errorf("Shuffle() = %s, want %s", got, tt.want)
				}
			})
		}
	})

	t.Run("Permutation", func(t *testing.T) {
		in := []string{"a", "b", "b", "c", "d", "e"}
		for range 100 {
			items := slices.Clone(in)
			Shuffle(items, nil)
			if !slices.Equal(sortedCopy(items), in) {
				t.Fatalf("not a permutation: %v", items)
			}
		}
	})

	t.Run("Every position is reachable", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		const n = 6
		seen := [n][n]bool{}

		for range 1000 {
			items := []int{0, 1, 2, 3, 4, 5}
			Shuffle(items, rng.IntN)
			for pos, v := range items {
				seen[v][pos] = true
			}
		}

		for v := range n {
			for pos := range n {
				if !seen[v][pos] {
					t.Errorf("element %d never landed at position %d", v, pos)
				}
			}
		}
	})

	t.Run("Short inputs", func(t *testing.T) {
		Shuffle([]string{}, nil)
		one := []string{"x"}
		Shuffle(one, func(int) int { t.Fatal("intn should not be called"); return 0 })
		if one[0] != "x" {
			t.Error("single element changed")
		}
	})
}

func TestPlaylistName(t *testing.T) {
	tc := []struct {
		names []string
		want  string
	}{
		{names: []string{"A", "B"}, want: "MergedMix: A, B"},
		{names: []string{"A", "B", "C"}, want: "MergedMix: A, B, C"},
		{names: []string{"A", "B", "C", "D", "E"}, want: "MergedMix: A, B, C and more..."},
	}

	for _, tt := range tc {
		t.Run(fmt.Sprintf("%d names", len(tt.names)), func(t *testing.T) {
			if got := PlaylistName(tt.names); got != tt.want {
				t.Errorf("PlaylistName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{
		FetchTopTracks: "fetch_top_tracks",
		ShuffleTracks:  "shuffle",
		CreatePlaylist: "create_playlist",
		Complete:       "complete",
		Phase(99):      "",
	} {
		if p.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(p), p.String(), want)
		}
	}
}
