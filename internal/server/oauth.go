package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mergemix/internal/auth"
	"github.com/desertthunder/mergemix/internal/shared"
)

// CallbackOpts configures a [CallbackHandler].
type CallbackOpts struct {
	// Path is the redirect URI path. Defaults to "/callback".
	Path string
	// Landing, when set, makes the handler redirect there after the callback instead of rendering a result page.
	Landing string
	Logger  *log.Logger
}

// CallbackHandler handles the authorization redirect for an [auth.Flow].
// Implements the Handler interface for registration with a Router.
type CallbackHandler struct {
	flow    *auth.Flow
	path    string
	landing string
	logger  *log.Logger

	once       sync.Once
	resultChan chan error
}

// NewCallbackHandler creates a callback handler that completes logins started on flow.
func NewCallbackHandler(flow *auth.Flow, opts CallbackOpts) *CallbackHandler {
	h := &CallbackHandler{
		flow:       flow,
		path:       opts.Path,
		landing:    opts.Landing,
		logger:     opts.Logger,
		resultChan: make(chan error, 1),
	}
	if h.path == "" {
		h.path = "/callback"
	}
	if h.logger == nil {
		h.logger = log.Default()
	}
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{http.MethodGet + " " + h.path}
}

// ServeHTTP hands the request URL to the flow.
//
// With a landing path the browser is sent there with the code parameters removed, so a reload never replays the
// code. Without one a small result page is rendered for the terminal login.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("code") == "" && q.Get("error") == "" {
		if h.landing != "" {
			http.Redirect(w, r, h.landing, http.StatusFound)
			return
		}
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	err := h.flow.HandleCallback(r.Context(), r.URL)
	if h.flow.State() != auth.AwaitingCallback {
		h.Send(h.flow.Err())
	}

	if h.landing != "" {
		target := h.landing
		if _, query, ok := strings.Cut(auth.StripCode(r.URL), "?"); ok {
			target += "?" + query
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	page := resultPage{Title: "Authorization Successful", Message: "You can close this window and return to the terminal."}
	status := http.StatusOK
	if err != nil {
		page = resultPage{Failed: true, Title: "Authorization Failed", Message: err.Error()}
		status = http.StatusBadRequest
		if errors.Is(err, shared.ErrTokenExchange) {
			status = http.StatusBadGateway
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := resultTemplate.Execute(w, page); err != nil {
		h.logger.Error("failed to render callback page", "error", err)
	}
}

// Send publishes the login outcome (only once).
func (h *CallbackHandler) Send(err error) {
	h.once.Do(func() {
		h.resultChan <- err
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving login completion.
//
// Channel will receive exactly one value, nil on success, and then be closed.
func (h *CallbackHandler) Result() <-chan error {
	return h.resultChan
}

// Await blocks until the callback settles or ctx ends.
func (h *CallbackHandler) Await(ctx context.Context) error {
	select {
	case err := <-h.resultChan:
		return err
	case <-ctx.Done():
		return shared.ErrTimeout
	}
}

type resultPage struct {
	Failed  bool
	Title   string
	Message string
}

var resultTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        h1.failed { color: #e22134; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1{{if .Failed}} class="failed"{{end}}>{{if .Failed}}✗{{else}}✓{{end}} {{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))
