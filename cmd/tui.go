package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mergemix/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for searching artists and merging playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	if err := r.useFileLogger(config); err != nil {
		return err
	}

	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Opts{
		Flow: r.flow,
		Login: func(ctx context.Context) error {
			return r.doOAuth(ctx, io.Discard)
		},
		Searcher: r.provider,
		Engine:   r.engine,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
