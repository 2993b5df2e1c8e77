package tasks

import (
	"fmt"

	"github.com/desertthunder/mergemix/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchTopTracks Phase = iota
	ShuffleTracks
	CreatePlaylist
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchTopTracks:
		return "fetch_top_tracks"
	case ShuffleTracks:
		return "shuffle"
	case CreatePlaylist:
		return "create_playlist"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func fetchTopTracksUpdate(step, total int, artist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTopTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetched top tracks for %s", step, total, artist),
	}
}

func shuffleUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ShuffleTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Shuffling %d tracks...", count),
	}
}

func createPlaylistUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q with %d tracks...", name, count),
	}
}

func completeUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}
