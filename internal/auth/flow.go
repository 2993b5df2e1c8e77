// Package auth implements the authorization-code + PKCE login against the Spotify Accounts service.
//
// A [Flow] moves through Unauthenticated -> AwaitingCallback -> Authenticated, or to Failed when the
// callback reports an error or the code exchange does not produce a token. The verifier and the CSRF state
// are kept in a [VerifierStore] between [Flow.BeginLogin] and [Flow.HandleCallback], so a callback handled by a
// restarted process still completes when the store is durable.
//
// The resulting access token lives in a [Session], which the services package reads on every request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mergemix/internal/pkce"
	"github.com/desertthunder/mergemix/internal/services"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// State is the position of a [Flow] in the login state machine.
type State int

const (
	Unauthenticated State = iota
	AwaitingCallback
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AwaitingCallback:
		return "awaiting_callback"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Scopes requested at login.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// FlowOpts configures a [Flow].
type FlowOpts struct {
	ClientID    string
	RedirectURI string
	Endpoint    oauth2.Endpoint
	Store       VerifierStore
	Session     *Session
	// Profiles is queried once after a successful exchange. Optional.
	Profiles   services.ProfileFetcher
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Flow drives the PKCE login and owns the resulting [Session].
type Flow struct {
	config     *oauth2.Config
	store      VerifierStore
	session    *Session
	profiles   services.ProfileFetcher
	httpClient *http.Client
	logger     *log.Logger

	// exchangeMu serializes callbacks so one code is never exchanged twice concurrently.
	exchangeMu sync.Mutex

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

// NewFlow creates a [Flow] in the Unauthenticated state.
func NewFlow(opts FlowOpts) *Flow {
	f := &Flow{
		config: &oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURI,
			Scopes:      Scopes,
			Endpoint:    opts.Endpoint,
		},
		store:      opts.Store,
		session:    opts.Session,
		profiles:   opts.Profiles,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}

	if f.store == nil {
		f.store = NewMemoryStore()
	}
	if f.session == nil {
		f.session = NewSession()
	}
	if f.logger == nil {
		f.logger = log.Default()
	}
	if f.session.Authenticated() {
		f.state = Authenticated
	}
	return f
}

// SetProfileFetcher sets the profile source after construction, for when the fetcher itself depends on the session.
func (f *Flow) SetProfileFetcher(p services.ProfileFetcher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles = p
}

// BeginLogin generates fresh PKCE credentials, stores the verifier, and returns the authorize URL the user must visit.
func (f *Flow) BeginLogin(ctx context.Context) (string, error) {
	creds, err := pkce.New()
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	state := uuid.NewString()

	if err := f.store.Put(ctx, VerifierKey, creds.Verifier); err != nil {
		return "", fmt.Errorf("failed to store code verifier: %w", err)
	}
	if err := f.store.Put(ctx, StateKey, state); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	authURL := f.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", pkce.Method),
		oauth2.SetAuthURLParam("code_challenge", creds.Challenge),
	)

	f.mu.Lock()
	f.state = AwaitingCallback
	f.err = nil
	if f.done == nil || isClosed(f.done) {
		f.done = make(chan struct{})
	}
	f.mu.Unlock()

	f.logger.Debug("login started", "redirect_uri", f.config.RedirectURL)
	return authURL, nil
}

// HandleCallback processes a request to the redirect URI.
//
// A URL with neither code nor error is a no-op. An error parameter fails the flow with [shared.ErrAuthFailed].
// A code is exchanged with the stored verifier, which is deleted once the exchange has been attempted; any failure
// on that path fails the flow with an error wrapping [shared.ErrTokenExchange]. The profile is fetched after a successful exchange; failing to fetch it is only logged.
func (f *Flow) HandleCallback(ctx context.Context, u *url.URL) error {
	q := u.Query()
	code, errParam := q.Get("code"), q.Get("error")

	if code == "" && errParam == "" {
		return nil
	}

	f.exchangeMu.Lock()
	defer f.exchangeMu.Unlock()

	if errParam != "" {
		err := fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam)
		if desc := q.Get("error_description"); desc != "" {
			err = fmt.Errorf("%w (%s)", err, desc)
		}
		f.cleanup(ctx)
		return f.fail(err)
	}

	if f.State() == Authenticated {
		f.logger.Debug("ignoring callback, already authenticated")
		return nil
	}

	expected, ok, err := f.store.Get(ctx, StateKey)
	if err != nil {
		return f.fail(fmt.Errorf("%w: %w", shared.ErrTokenExchange, err))
	}
	if ok && q.Get("state") != expected {
		return f.fail(fmt.Errorf("%w: %w", shared.ErrAuthFailed, shared.ErrStateMismatch))
	}

	verifier, ok, err := f.store.Get(ctx, VerifierKey)
	if err != nil {
		return f.fail(fmt.Errorf("%w: %w", shared.ErrTokenExchange, err))
	}
	if !ok || verifier == "" {
		return f.fail(fmt.Errorf("%w: %w", shared.ErrTokenExchange, shared.ErrVerifierMissing))
	}

	if f.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	}

	// A sent code is spent, so the verifier is dropped whatever the outcome.
	token, err := f.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	f.cleanup(ctx)
	if err != nil {
		return f.fail(fmt.Errorf("%w: %w", shared.ErrTokenExchange, describeExchangeError(err)))
	}
	if token.AccessToken == "" {
		return f.fail(fmt.Errorf("%w: response has no access_token", shared.ErrTokenExchange))
	}

	f.session.SetToken(token.AccessToken)

	f.mu.Lock()
	profiles := f.profiles
	f.mu.Unlock()

	if profiles != nil {
		user, err := profiles.CurrentUser(ctx)
		if err != nil {
			f.logger.Warn("failed to fetch user profile", "error", err)
		} else {
			f.session.SetUser(user)
			f.logger.Info("logged in", "user", user.ID)
		}
	}

	f.transition(Authenticated, nil)
	return nil
}

// StripCode returns u as a relative URL without the authorization response parameters.
func StripCode(u *url.URL) string {
	q := u.Query()
	for _, k := range []string{"code", "state", "error", "error_description"} {
		q.Del(k)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error that moved the flow to Failed, if any.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Flow) Session() *Session {
	return f.session
}

// Wait blocks while the flow is AwaitingCallback and returns the state it settled in.
// The returned error is the flow error for Failed, or ctx.Err() when ctx ends first.
func (f *Flow) Wait(ctx context.Context) (State, error) {
	f.mu.Lock()
	if f.state != AwaitingCallback {
		s, err := f.state, f.err
		f.mu.Unlock()
		return s, err
	}
	done := f.done
	f.mu.Unlock()

	select {
	case <-done:
		return f.State(), f.Err()
	case <-ctx.Done():
		return f.State(), ctx.Err()
	}
}

// Logout clears the session and returns the flow to Unauthenticated.
func (f *Flow) Logout() {
	f.session.Clear()
	f.transition(Unauthenticated, nil)
}

func (f *Flow) fail(err error) error {
	f.logger.Error("login failed", "error", err)
	f.transition(Failed, err)
	return err
}

func (f *Flow) transition(s State, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
	f.err = err
	if f.done != nil && !isClosed(f.done) {
		close(f.done)
	}
}

// cleanup removes the one-shot values written by BeginLogin.
func (f *Flow) cleanup(ctx context.Context) {
	for _, k := range []string{VerifierKey, StateKey} {
		if err := f.store.Delete(ctx, k); err != nil {
			f.logger.Warn("failed to delete stored value", "key", k, "error", err)
		}
	}
}

func describeExchangeError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.ErrorDescription != "" {
		return fmt.Errorf("%s: %w", rerr.ErrorDescription, err)
	}
	return err
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
