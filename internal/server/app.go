package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mergemix/internal/auth"
	"github.com/desertthunder/mergemix/internal/formatter"
	"github.com/desertthunder/mergemix/internal/models"
	"github.com/desertthunder/mergemix/internal/selection"
	"github.com/desertthunder/mergemix/internal/services"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/desertthunder/mergemix/internal/tasks"
)

// LoginPath starts a login from the browser.
const LoginPath = "/login"

// AppOpts configures an [App].
type AppOpts struct {
	Flow     *auth.Flow
	Searcher services.ArtistSearcher
	Engine   *tasks.MergeEngine
	// Selection is shared with other surfaces. A new empty set is used when nil.
	Selection *selection.Set
	Logger    *log.Logger
}

// App serves the JSON API used by a browser front end.
type App struct {
	flow     *auth.Flow
	searcher services.ArtistSearcher
	engine   *tasks.MergeEngine
	sel      *selection.Set
	logger   *log.Logger
}

// NewApp creates an [App].
func NewApp(opts AppOpts) *App {
	a := &App{
		flow:     opts.Flow,
		searcher: opts.Searcher,
		engine:   opts.Engine,
		sel:      opts.Selection,
		logger:   opts.Logger,
	}
	if a.sel == nil {
		a.sel = selection.New()
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	return a
}

// Register adds the app routes to r.
func (a *App) Register(r Router) {
	r.Handle(http.MethodGet, "/{$}", http.HandlerFunc(a.status))
	r.Handle(http.MethodGet, LoginPath, http.HandlerFunc(a.login))
	r.Handle(http.MethodPost, "/logout", http.HandlerFunc(a.logout))
	r.Handle(http.MethodGet, "/api/search", http.HandlerFunc(a.search))
	r.Handle(http.MethodGet, "/api/selection", http.HandlerFunc(a.listSelection))
	r.Handle(http.MethodPost, "/api/selection", http.HandlerFunc(a.addSelection))
	r.Handle(http.MethodDelete, "/api/selection", http.HandlerFunc(a.clearSelection))
	r.Handle(http.MethodDelete, "/api/selection/{id}", http.HandlerFunc(a.removeSelection))
	r.Handle(http.MethodPost, "/api/merge", http.HandlerFunc(a.merge))
}

// Selection returns the set the API mutates.
func (a *App) Selection() *selection.Set {
	return a.sel
}

type statusResponse struct {
	State     string       `json:"state"`
	User      *models.User `json:"user,omitempty"`
	Error     string       `json:"error,omitempty"`
	LoginURL  string       `json:"login_url,omitempty"`
	Selection selectionDTO `json:"selection"`
}

type selectionDTO struct {
	Artists  []models.Artist `json:"artists"`
	Count    int             `json:"count"`
	Required int             `json:"required"`
	Ready    bool            `json:"ready"`
	Status   string          `json:"status"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Detail   string `json:"detail,omitempty"`
	LoginURL string `json:"login_url,omitempty"`
}

func (a *App) selectionDTO() selectionDTO {
	artists := a.sel.Values()
	required := a.engine.Required()
	return selectionDTO{
		Artists:  artists,
		Count:    len(artists),
		Required: required,
		Ready:    len(artists) >= required,
		Status:   formatter.MergeStatus(len(artists), required),
	}
}

func (a *App) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		State:     a.flow.State().String(),
		User:      a.flow.Session().User(),
		Selection: a.selectionDTO(),
	}
	if err := a.flow.Err(); err != nil {
		resp.Error = err.Error()
	}
	if !a.flow.Session().Authenticated() {
		resp.LoginURL = LoginPath
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	authURL, err := a.flow.BeginLogin(r.Context())
	if err != nil {
		a.logger.Error("failed to begin login", "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	a.flow.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
		return
	}

	result, err := a.searcher.SearchArtists(r.Context(), q)
	if err != nil {
		a.writeServiceError(w, err, formatter.StatusSearchFailed)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) listSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.selectionDTO())
}

func (a *App) addSelection(w http.ResponseWriter, r *http.Request) {
	var artist models.Artist
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&artist); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid artist", Detail: err.Error()})
		return
	}
	if artist.ID == "" || artist.Name == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "artist id and name are required"})
		return
	}

	status := http.StatusOK
	if a.sel.Add(artist) {
		status = http.StatusCreated
	}
	writeJSON(w, status, a.selectionDTO())
}

func (a *App) removeSelection(w http.ResponseWriter, r *http.Request) {
	if !a.sel.Remove(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, errorResponse{Error: shared.ErrArtistNotFound.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) clearSelection(w http.ResponseWriter, r *http.Request) {
	a.sel.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) merge(w http.ResponseWriter, r *http.Request) {
	artists := a.sel.Names()
	playlist, err := a.engine.CreateMergedPlaylist(r.Context(), a.sel, nil)
	if err != nil {
		if errors.Is(err, shared.ErrNotEnoughArtists) {
			writeError(w, http.StatusConflict, errorResponse{
				Error:  formatter.MergeStatus(a.sel.Size(), a.engine.Required()),
				Detail: err.Error(),
			})
			return
		}
		a.writeServiceError(w, err, formatter.StatusCreateFailed)
		return
	}
	writeJSON(w, http.StatusCreated, formatter.NewMergeSummary(playlist, artists))
}

// writeServiceError maps upstream failures: 401 for a missing or rejected token, 502 for other API errors.
func (a *App) writeServiceError(w http.ResponseWriter, err error, status string) {
	var httpErr *services.HTTPError

	switch {
	case errors.Is(err, shared.ErrAuthRequired), errors.As(err, &httpErr) && httpErr.Unauthorized():
		writeError(w, http.StatusUnauthorized, errorResponse{
			Error:    formatter.StatusLoginRequired,
			Detail:   err.Error(),
			LoginURL: LoginPath,
		})
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, shared.ErrNoTracksFound):
		writeError(w, http.StatusUnprocessableEntity, errorResponse{Error: status, Detail: err.Error()})
	case httpErr != nil, errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrMalformedResponse):
		a.logger.Warn("upstream request failed", "error", err)
		writeError(w, http.StatusBadGateway, errorResponse{Error: status, Detail: err.Error()})
	default:
		a.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: status, Detail: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	writeJSON(w, status, resp)
}

// NewRouter assembles the full local service: request ids, recovery, logging, the callback, and the API.
func NewRouter(app *App, callback *CallbackHandler, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = log.Default()
	}

	r := NewBasicRouter()
	r.Use(WithRequestID(), WithRecover(logger), WithLogging(logger))
	if callback != nil {
		r.Handler(callback)
	}
	if app != nil {
		app.Register(r)
	}
	return r
}
