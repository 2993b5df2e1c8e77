package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mergemix/internal/auth"
	"github.com/desertthunder/mergemix/internal/repositories"
	"github.com/desertthunder/mergemix/internal/services"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/desertthunder/mergemix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// DefaultLoginTimeout bounds how long the login waits for the browser callback.
const DefaultLoginTimeout = 2 * time.Minute

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built lazily by [Runner.prepare] once the configuration is known.
type Runner struct {
	config       *shared.Config
	logger       *log.Logger
	output       io.Writer
	prompt       io.Writer
	httpClient   *http.Client
	openBrowser  shared.BrowserOpener
	loginTimeout time.Duration

	db       *sql.DB
	store    auth.VerifierStore
	session  *auth.Session
	flow     *auth.Flow
	provider services.Provider
	engine   *tasks.MergeEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config skips loading --config when set.
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	// Prompt receives interactive text such as the authorize URL. Defaults to stderr so --json output stays clean.
	Prompt      io.Writer
	HTTPClient  *http.Client
	OpenBrowser shared.BrowserOpener
	// Provider replaces the Spotify client.
	Provider services.Provider
	// Store replaces the SQLite verifier store.
	Store        auth.VerifierStore
	LoginTimeout time.Duration
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prompt == nil {
		opts.Prompt = os.Stderr
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = DefaultLoginTimeout
	}

	return &Runner{
		config:       opts.Config,
		logger:       opts.Logger,
		output:       opts.Output,
		prompt:       opts.Prompt,
		httpClient:   opts.HTTPClient,
		openBrowser:  opts.OpenBrowser,
		loginTimeout: opts.LoginTimeout,
		provider:     opts.Provider,
		store:        opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		configCommand, setupCommand, loginCommand, searchCommand, mergeCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and any service built after the call.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// useFileLogger sends logs to the rotated log.file so they stay out of the terminal output.
func (r *Runner) useFileLogger(config *shared.Config) error {
	fileLogger, err := shared.NewFileLogger(config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if err := shared.SetLogLevel(fileLogger, config.Log.Level); err != nil {
		return err
	}
	r.SetLogger(fileLogger)
	return nil
}

// loadConfig resolves --config once, applying environment overrides and the configured log level.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config, err := shared.ResolveConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		r.logger.Warn("ignoring log level", "error", err)
	}

	r.config = config
	return config, nil
}

// prepare builds the session, login flow, Spotify client, and merge engine.
func (r *Runner) prepare(ctx context.Context, cmd *cli.Command) error {
	if r.flow != nil {
		return nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if r.store == nil {
		db, err := shared.OpenDatabase(ctx, config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
		r.store = repositories.NewKVRepository(db)
	}

	r.session = auth.NewSession()

	if r.provider == nil {
		r.provider = services.NewSpotifyService(services.SpotifyOpts{
			Tokens:            r.session,
			BaseURL:           config.Spotify.APIURL,
			Market:            config.Spotify.Market,
			SearchLimit:       config.Spotify.SearchLimit,
			Description:       config.Merge.Description,
			RollbackOnFailure: config.Merge.RollbackOnFailure,
			Limiter:           services.NewLimiter(config.Spotify.RequestsPerSecond),
			HTTPClient:        r.httpClient,
			Logger:            shared.WithLogger(r.logger, "service", "spotify"),
		})
	}

	r.flow = auth.NewFlow(auth.FlowOpts{
		ClientID:    config.Spotify.ClientID,
		RedirectURI: config.Spotify.RedirectURI,
		Endpoint:    config.Spotify.Endpoint(),
		Store:       r.store,
		Session:     r.session,
		Profiles:    r.provider,
		HTTPClient:  r.httpClient,
		Logger:      shared.WithLogger(r.logger, "component", "auth"),
	})

	r.engine = tasks.NewMergeEngine(r.provider, tasks.MergeOpts{
		RequiredArtists: config.Merge.RequiredArtists,
		TracksPerArtist: config.Merge.TracksPerArtist,
		Logger:          shared.WithLogger(r.logger, "component", "merge"),
	})
	return nil
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
