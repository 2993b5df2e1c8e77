package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mergemix/internal/auth"
	"github.com/desertthunder/mergemix/internal/formatter"
	"github.com/desertthunder/mergemix/internal/models"
	"github.com/desertthunder/mergemix/internal/selection"
	"github.com/desertthunder/mergemix/internal/services"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/desertthunder/mergemix/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	SearchView
	MergeView
	ResultView
)

type focusArea int

const (
	focusInput focusArea = iota
	focusResults
)

// LoginFunc runs an interactive login and returns once the flow settles.
type LoginFunc func(ctx context.Context) error

// Opts holds the dependencies of a [Model].
type Opts struct {
	Flow     *auth.Flow
	Login    LoginFunc
	Searcher services.ArtistSearcher
	Engine   *tasks.MergeEngine
	// Selection is created empty when nil.
	Selection    *selection.Set
	Autocomplete tasks.AutocompleteOpts
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	flow     *auth.Flow
	login    LoginFunc
	searcher services.ArtistSearcher
	engine   *tasks.MergeEngine
	complete *tasks.Autocompleter
	sel      *selection.Set
	width    int
	height   int

	input      textinput.Model
	results    list.Model
	artists    []models.Artist
	focus      focusArea
	status     string
	loggingIn  bool
	mergeRun   *mergeRun
	progress   tasks.ProgressUpdate
	playlist   *models.Playlist
	mergedWith []string
	err        error
	help       help.Model
	keys       keyMap
}

type mergeRun struct {
	progress chan tasks.ProgressUpdate
	done     chan mergeDone
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	input := textinput.New()
	input.Placeholder = "Search for an artist"
	input.CharLimit = 100
	input.Width = 40

	results := list.New(nil, list.NewDefaultDelegate(), 60, 14)
	results.Title = "Artists"
	results.SetFilteringEnabled(false)
	results.SetShowStatusBar(false)
	results.SetShowHelp(false)

	sel := opts.Selection
	if sel == nil {
		sel = selection.New()
	}

	m := &Model{
		ctx:      ctx,
		view:     LoginView,
		flow:     opts.Flow,
		login:    opts.Login,
		searcher: opts.Searcher,
		engine:   opts.Engine,
		complete: tasks.NewAutocompleter(ctx, opts.Searcher, opts.Autocomplete),
		sel:      sel,
		input:    input,
		results:  results,
		status:   formatter.StatusLoginRequired,
		help:     help.New(),
		keys:     newKeyMap(),
	}

	if m.flow.Session().Authenticated() {
		m.enterSearch()
	}
	return m
}

// Init starts listening for suggestions.
func (m *Model) Init() tea.Cmd {
	if m.view == SearchView {
		return tea.Batch(textinput.Blink, m.waitForSuggestions())
	}
	return m.waitForSuggestions()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, max(msg.Height-14, 6))
		m.input.Width = max(msg.Width-8, 20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case MergeView:
			if key.Matches(msg, m.keys.abort) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == SearchView {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoginDone:
		m.loggingIn = false
		if err, _ := msg.data.(error); err != nil {
			m.err = err
			m.status = formatter.StatusLoginRequired
			return m, nil
		}
		m.err = nil
		return m, m.enterSearch()

	case MsgSuggestions:
		r := msg.data.(tasks.AutocompleteResult)
		next := m.waitForSuggestions()
		if !m.complete.IsCurrent(r) || m.view != SearchView {
			return m, next
		}
		if r.Hide {
			m.setArtists(nil)
			m.status = ""
			return m, next
		}
		return m, tea.Batch(next, m.applySearch(r.Result, r.Err))

	case MsgSearchDone:
		d := msg.data.(searchDone)
		if d.query != strings.TrimSpace(m.input.Value()) {
			return m, nil
		}
		return m, m.applySearch(d.result, d.err)

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgMergeComplete:
		d := msg.data.(mergeDone)
		m.mergeRun = nil
		m.playlist = d.playlist
		m.mergedWith = d.artists
		m.err = d.err
		if d.err != nil && isAuthError(d.err) {
			return m, m.requireLogin()
		}
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case SearchView:
		return m.renderSearch()
	case MergeView:
		return m.renderMerge()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.login):
		if m.loggingIn || m.login == nil {
			return m, nil
		}
		m.loggingIn = true
		m.err = nil
		return m, m.runLogin()
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort):
		return m, tea.Quit
	case key.Matches(msg, m.keys.focus):
		return m, m.switchFocus()
	case key.Matches(msg, m.keys.merge):
		return m, m.startMerge()
	case key.Matches(msg, m.keys.reset):
		m.sel.Clear()
		m.refreshItems()
		m.status = ""
		return m, nil
	}

	if m.focus == focusResults {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.toggle):
			m.toggleSelected()
			return m, nil
		case key.Matches(msg, m.keys.clear):
			return m, m.switchFocus()
		}

		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.search):
		return m, m.search()
	case key.Matches(msg, m.keys.clear):
		m.input.SetValue("")
		m.complete.Input("")
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.complete.Input(after)
		if len([]rune(strings.TrimSpace(after))) >= tasks.MinQueryLength {
			m.status = formatter.StatusSearching
		}
	}
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.playlist = nil
		m.mergedWith = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, m.enterSearch()
	}
	return m, nil
}

func (m *Model) enterSearch() tea.Cmd {
	m.view = SearchView
	m.focus = focusInput
	m.status = ""
	return m.input.Focus()
}

func (m *Model) requireLogin() tea.Cmd {
	m.flow.Logout()
	m.complete.Stop()
	m.view = LoginView
	m.input.Blur()
	m.status = formatter.StatusLoginRequired
	return nil
}

func (m *Model) switchFocus() tea.Cmd {
	if m.focus == focusInput {
		m.focus = focusResults
		m.input.Blur()
		return nil
	}
	m.focus = focusInput
	return m.input.Focus()
}

func (m *Model) toggleSelected() {
	item, ok := m.results.SelectedItem().(artistItem)
	if !ok {
		return
	}
	m.sel.Toggle(item.artist)
	m.refreshItems()
}

func (m *Model) setArtists(artists []models.Artist) {
	m.artists = artists
	m.results.ResetSelected()
	m.refreshItems()
}

// refreshItems rebuilds list items so the selection marks follow the set.
func (m *Model) refreshItems() {
	items := make([]list.Item, len(m.artists))
	for i, a := range m.artists {
		items[i] = artistItem{artist: a, selected: m.sel.Has(a.ID)}
	}
	m.results.SetItems(items)
}

func (m *Model) applySearch(result *models.ArtistSearchResult, err error) tea.Cmd {
	if err != nil {
		m.err = err
		if isAuthError(err) {
			return m.requireLogin()
		}
		m.setArtists(nil)
		m.status = formatter.StatusSearchFailed
		return nil
	}

	m.err = nil
	if result.Empty() {
		m.setArtists(nil)
		m.status = formatter.StatusNoArtists
		return nil
	}
	m.setArtists(result.Items)
	m.status = ""
	return nil
}

func (m *Model) runLogin() tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg(m.login(m.ctx))
	}
}

func (m *Model) waitForSuggestions() tea.Cmd {
	results := m.complete.Results()
	return func() tea.Msg {
		select {
		case r := <-results:
			return suggestionsMsg(r)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// search runs the query in the input immediately, superseding any pending suggestion.
func (m *Model) search() tea.Cmd {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return nil
	}

	m.complete.Stop()
	m.status = formatter.StatusSearching
	return func() tea.Msg {
		result, err := m.searcher.SearchArtists(m.ctx, query)
		return searchDoneMsg(query, result, err)
	}
}

func (m *Model) startMerge() tea.Cmd {
	required := m.engine.Required()
	if !m.sel.Ready(required) {
		m.status = formatter.MergeStatus(m.sel.Size(), required)
		return nil
	}

	run := &mergeRun{
		progress: make(chan tasks.ProgressUpdate, 16),
		done:     make(chan mergeDone, 1),
	}
	m.mergeRun = run
	m.view = MergeView
	m.status = formatter.StatusCreating
	m.progress = tasks.ProgressUpdate{}
	m.complete.Stop()

	artists := m.sel.Names()
	go func() {
		playlist, err := m.engine.CreateMergedPlaylist(m.ctx, m.sel, run.progress)
		run.done <- mergeDone{playlist: playlist, artists: artists, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	run := m.mergeRun
	return func() tea.Msg {
		if run == nil {
			return nil
		}
		select {
		case update := <-run.progress:
			return progressUpdateMsg(update)
		case d := <-run.done:
			return mergeCompleteMsg(d.playlist, d.artists, d.err)
		}
	}
}

func isAuthError(err error) bool {
	var httpErr *services.HTTPError
	return errors.Is(err, shared.ErrAuthRequired) || (errors.As(err, &httpErr) && httpErr.Unauthorized())
}

func (m *Model) header() string {
	title := "MergeMix"
	if u := m.flow.Session().User(); u != nil {
		title = fmt.Sprintf("%s %s", title, styles.badge.Render(u.Name()))
	}
	return styles.title.Render(title)
}

func (m *Model) renderLogin() string {
	var body string
	switch {
	case m.loggingIn:
		body = "Waiting for authorization in your browser..."
	case m.err != nil:
		body = styles.err.Render(fmt.Sprintf("Login failed: %v", m.err)) + "\n\n" + m.status
	default:
		body = m.status
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.login, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", m.header(), body, helpView)
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.header() + "\n")
	b.WriteString(m.input.View() + "\n")

	switch {
	case m.status == formatter.StatusSearchFailed:
		b.WriteString(styles.err.Render(m.status) + "\n")
	case m.status != "":
		b.WriteString(styles.warn.Render(m.status) + "\n")
	default:
		b.WriteString("\n")
	}

	if len(m.artists) > 0 {
		b.WriteString(m.results.View() + "\n")
	}

	b.WriteString("\n" + m.renderSelection() + "\n\n")

	keys := []key.Binding{m.keys.search, m.keys.focus, m.keys.merge, m.keys.abort}
	if m.focus == focusResults {
		keys = []key.Binding{m.keys.toggle, m.keys.focus, m.keys.merge, m.keys.quit}
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

func (m *Model) renderSelection() string {
	required := m.engine.Required()
	status := formatter.MergeStatus(m.sel.Size(), required)
	if m.sel.Ready(required) {
		status = styles.ok.Render(status)
	} else {
		status = styles.help.Render(status)
	}

	names := m.sel.Names()
	if len(names) == 0 {
		return status
	}
	return fmt.Sprintf("%s\n%s", status, styles.selected.Render(strings.Join(names, " • ")))
}

func (m *Model) renderMerge() string {
	title := styles.title.Render(formatter.StatusCreating)

	var phase string
	switch m.progress.Phase {
	case tasks.FetchTopTracks:
		phase = fmt.Sprintf("Fetching top tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ShuffleTracks:
		phase = "Shuffling tracks..."
	case tasks.CreatePlaylist, tasks.Complete:
		phase = "Creating playlist on Spotify..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("%s\n\n%v", formatter.StatusCreateFailed, m.err)) + "\n\n" + helpView
	}
	if m.playlist == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	summary := formatter.NewMergeSummary(m.playlist, m.mergedWith)
	title := styles.ok.Render("✓ " + formatter.StatusCreated)
	info := fmt.Sprintf(
		"\nPlaylist: %s\nArtists:  %s\nTracks:   %d\n\nOpen:  %s\nEmbed: %s",
		m.playlist.Name,
		strings.Join(summary.Artists, ", "),
		m.playlist.TrackCount,
		summary.URL,
		summary.EmbedURL,
	)
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
