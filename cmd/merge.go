package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/mergemix/internal/formatter"
	"github.com/desertthunder/mergemix/internal/selection"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/desertthunder/mergemix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Merge resolves each --artist to its first search result and creates the merged playlist.
func (r *Runner) Merge(ctx context.Context, cmd *cli.Command) error {
	names := cmd.StringSlice("artist")
	useJSON := cmd.Bool("json")

	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}
	if len(names) < r.engine.Required() {
		return fmt.Errorf("%w: %s", shared.ErrNotEnoughArtists, formatter.MergeStatus(len(names), r.engine.Required()))
	}
	if err := r.ensureLogin(ctx); err != nil {
		return err
	}

	sel, err := r.resolveArtists(ctx, names)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if useJSON {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}
			r.writePlain("%s\n", update.Message)
		}
	}()

	if !useJSON {
		r.writePlain("%s\n", formatter.StatusCreating)
	}

	playlist, err := r.engine.CreateMergedPlaylist(ctx, sel, progress)
	close(progress)
	wg.Wait()

	if err != nil {
		return fmt.Errorf("%s: %w", formatter.StatusCreateFailed, err)
	}

	summary := formatter.NewMergeSummary(playlist, sel.Names())
	if useJSON {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	return r.writePlain("%s", formatter.MergeResultToText(summary))
}

// resolveArtists searches each name and selects the first hit, skipping duplicates.
func (r *Runner) resolveArtists(ctx context.Context, names []string) (*selection.Set, error) {
	sel := selection.New()

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty artist name", shared.ErrInvalidArgument)
		}

		result, err := r.provider.SearchArtists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to search for %q: %w", name, err)
		}
		if result.Empty() {
			return nil, fmt.Errorf("%w: %q", shared.ErrArtistNotFound, name)
		}

		artist := result.Items[0]
		if !sel.Add(artist) {
			r.logger.Warn("artist already selected", "query", name, "artist", artist.Name)
			continue
		}
		r.logger.Info("resolved artist", "query", name, "artist", artist.Name, "id", artist.ID)
	}

	return sel, nil
}
