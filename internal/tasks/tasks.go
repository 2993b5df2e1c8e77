package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mergemix/internal/models"
	"github.com/desertthunder/mergemix/internal/selection"
	"github.com/desertthunder/mergemix/internal/services"
	"github.com/desertthunder/mergemix/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	// RequiredArtists is the minimum selection size for a merge.
	RequiredArtists = 3
	// TracksPerArtist is how many top tracks each artist contributes.
	TracksPerArtist = 2

	PlaylistNamePrefix = "MergedMix: "
	maxNamedArtists    = 3
)

// MergeProvider is the subset of the music service the merge engine calls.
type MergeProvider interface {
	services.TrackProvider
	services.PlaylistCreator
}

// MergeOpts configures a [MergeEngine]. Zero values use the package defaults.
type MergeOpts struct {
	RequiredArtists int
	TracksPerArtist int
	// Intn returns a uniform int in [0, n). Defaults to [rand.IntN].
	Intn   func(n int) int
	Logger *log.Logger
}

// MergeEngine builds shuffled playlists from a selection of artists.
type MergeEngine struct {
	provider  MergeProvider
	required  int
	perArtist int
	intn      func(int) int
	logger    *log.Logger
}

// NewMergeEngine creates a new MergeEngine with the provided service.
func NewMergeEngine(provider MergeProvider, opts MergeOpts) *MergeEngine {
	e := &MergeEngine{
		provider:  provider,
		required:  opts.RequiredArtists,
		perArtist: opts.TracksPerArtist,
		intn:      opts.Intn,
		logger:    opts.Logger,
	}
	if e.required <= 0 {
		e.required = RequiredArtists
	}
	if e.perArtist <= 0 {
		e.perArtist = TracksPerArtist
	}
	if e.intn == nil {
		e.intn = rand.IntN
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	return e
}

// Required returns the minimum selection size this engine accepts.
func (e *MergeEngine) Required() int {
	return e.required
}

// sendProgress sends a progress update through the channel without blocking.
func (e *MergeEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// CreateMergedPlaylist fetches the top tracks of every selected artist, shuffles them, and creates a playlist.
//
// It returns [shared.ErrNotEnoughArtists] without any network call when the selection is too small, the first
// fetch error when any artist fails, and [shared.ErrNoTracksFound] when no artist has a playable track. Errors
// from playlist creation are returned unchanged.
func (e *MergeEngine) CreateMergedPlaylist(ctx context.Context, sel *selection.Set, progress chan<- ProgressUpdate) (*models.Playlist, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}

	artists := sel.Values()
	if len(artists) < e.required {
		return nil, fmt.Errorf("%w: %d selected, %d required", shared.ErrNotEnoughArtists, len(artists), e.required)
	}

	perArtist, err := e.fetchTopTracks(ctx, artists, progress)
	if err != nil {
		return nil, err
	}

	var uris []string
	for _, tracks := range perArtist {
		for _, t := range tracks {
			if t.URI != "" {
				uris = append(uris, t.URI)
			}
		}
	}

	if len(uris) == 0 {
		return nil, shared.ErrNoTracksFound
	}

	e.sendProgress(progress, shuffleUpdate(len(uris)))
	Shuffle(uris, e.intn)

	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	name := PlaylistName(names)

	e.sendProgress(progress, createPlaylistUpdate(name, len(uris)))
	e.logger.Info("creating merged playlist", "name", name, "tracks", len(uris), "artists", len(artists))

	playlist, err := e.provider.CreatePlaylist(ctx, name, uris)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, completeUpdate(playlist))
	return playlist, nil
}

// fetchTopTracks runs one request per artist. Results keep selection order regardless of completion order.
func (e *MergeEngine) fetchTopTracks(ctx context.Context, artists []models.Artist, progress chan<- ProgressUpdate) ([][]models.Track, error) {
	results := make([][]models.Track, len(artists))
	total := len(artists)

	var done atomic.Int32
	g, gctx := errgroup.WithContext(ctx)

	for i, a := range artists {
		g.Go(func() error {
			tracks, err := e.provider.TopTracks(gctx, a.ID, e.perArtist)
			if err != nil {
				e.logger.Error("failed to fetch top tracks", "artist", a.Name, "error", err)
				return fmt.Errorf("top tracks for %s: %w", a.Name, err)
			}
			if len(tracks) > e.perArtist {
				tracks = tracks[:e.perArtist]
			}
			results[i] = tracks

			n := done.Add(1)
			e.sendProgress(progress, fetchTopTracksUpdate(int(n), total, a.Name))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Shuffle permutes items in place with Fisher-Yates. intn must return a uniform int in [0, n);
// nil uses [rand.IntN].
func Shuffle[T any](items []T, intn func(n int) int) {
	if intn == nil {
		intn = rand.IntN
	}
	for i := len(items) - 1; i > 0; i-- {
		j := intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// PlaylistName builds the merged playlist title from artist names in selection order.
//
// Up to three names are listed; beyond that the first three are followed by " and more...".
func PlaylistName(names []string) string {
	if len(names) > maxNamedArtists {
		return PlaylistNamePrefix + strings.Join(names[:maxNamedArtists], ", ") + " and more..."
	}
	return PlaylistNamePrefix + strings.Join(names, ", ")
}
