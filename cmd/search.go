package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mergemix/internal/formatter"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search logs in if needed, searches artists, and prints them in the requested format.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	format := cmd.String("format")
	if !validFormat(format) {
		return fmt.Errorf("%w: format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(formatter.Formats, ", "))
	}

	if limit := cmd.Int("limit"); limit > 0 {
		config, err := r.loadConfig(cmd)
		if err != nil {
			return err
		}
		config.Spotify.SearchLimit = limit
	}

	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}
	if err := r.ensureLogin(ctx); err != nil {
		return err
	}

	r.logger.Info("searching artists", "query", query)

	result, err := r.provider.SearchArtists(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: %w", formatter.StatusSearchFailed, err)
	}

	if result.Empty() && format == formatter.FormatText {
		return r.writePlain("%s\n", formatter.StatusNoArtists)
	}

	out, err := formatter.Artists(result.Items, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", out)
}

func validFormat(format string) bool {
	for _, f := range formatter.Formats {
		if f == format {
			return true
		}
	}
	return false
}
