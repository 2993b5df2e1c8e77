package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"

	"github.com/desertthunder/mergemix/internal/server"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login runs the browser login and prints the authenticated user.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}
	if err := r.doOAuth(ctx, r.prompt); err != nil {
		return err
	}

	name := "unknown user"
	if u := r.session.User(); u != nil {
		name = u.Name()
	}
	return r.writePlainln("✓ Logged in as %s", name)
}

// ensureLogin runs the login unless the session already holds a token.
func (r *Runner) ensureLogin(ctx context.Context) error {
	if r.session.Authenticated() {
		return nil
	}
	return r.doOAuth(ctx, r.prompt)
}

// doOAuth starts a callback server on the redirect URI, opens the authorize URL, and waits for the callback.
//
// Progress text goes to w so the TUI can silence it.
func (r *Runner) doOAuth(ctx context.Context, w io.Writer) error {
	addr, path, err := callbackTarget(r.config.Spotify.RedirectURI)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.loginTimeout)
	defer cancel()

	callback := server.NewCallbackHandler(r.flow, server.CallbackOpts{Path: path, Logger: r.logger})
	srv := server.NewHTTPServer(addr, server.NewRouter(nil, callback, r.logger))

	ready := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx, srv, r.logger, ready)
	}()

	select {
	case <-ready:
	case err := <-errCh:
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	authURL, err := r.flow.BeginLogin(ctx)
	if err != nil {
		cancel()
		<-errCh
		return err
	}

	fmt.Fprintf(w, "Opening browser for Spotify authorization...\nIf it does not open, visit:\n\n  %s\n\n", authURL)
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
	}

	err = callback.Await(ctx)
	cancel()
	if serr := <-errCh; serr != nil {
		r.logger.Warn("callback server stopped with error", "error", serr)
	}
	return err
}

// callbackTarget splits a loopback redirect URI into the listen address and the callback path.
func callbackTarget(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("%w: redirect_uri: %w", shared.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" {
		return "", "", fmt.Errorf("%w: redirect_uri must be an http loopback URL, got %q", shared.ErrInvalidConfig, redirectURI)
	}

	host, port, err := net.SplitHostPort(u.Host)
	if err != nil || port == "" {
		return "", "", fmt.Errorf("%w: redirect_uri needs an explicit port, got %q", shared.ErrInvalidConfig, redirectURI)
	}

	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, nil
}
