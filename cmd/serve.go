package main

import (
	"context"
	"fmt"
	"net"

	"github.com/desertthunder/mergemix/internal/server"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the local HTTP API until interrupted.
//
// spotify.redirect_uri must point at this server's callback path.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}
	if err := r.useFileLogger(config); err != nil {
		return err
	}

	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	_, path, err := callbackTarget(config.Spotify.RedirectURI)
	if err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	app := server.NewApp(server.AppOpts{
		Flow:     r.flow,
		Searcher: r.provider,
		Engine:   r.engine,
		Logger:   logger,
	})
	callback := server.NewCallbackHandler(r.flow, server.CallbackOpts{Path: path, Landing: "/", Logger: logger})
	srv := server.NewHTTPServer(config.Server.Addr(), server.NewRouter(app, callback, logger))

	ready := make(chan string, 1)
	go func() {
		addr := <-ready
		base := "http://" + addr
		if host, port, err := net.SplitHostPort(addr); err == nil && (host == "" || host == "::" || host == "0.0.0.0") {
			base = "http://" + net.JoinHostPort("127.0.0.1", port)
		}
		r.writePlainHeader("mergemix server")
		r.writePlain("Listening on %s\n", base)
		r.writePlain("Log in at    %s%s\n", base, server.LoginPath)
		r.writePlain("Callback     %s (required artists: %d)\n", config.Spotify.RedirectURI, r.engine.Required())
		r.writePlain("Logs         %s\n", config.Log.File)
	}()

	if err := server.Run(ctx, srv, logger, ready); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
