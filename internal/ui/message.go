package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mergemix/internal/models"
	"github.com/desertthunder/mergemix/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoginDone MsgKind = iota
	MsgSuggestions
	MsgSearchDone
	MsgProgressUpdate
	MsgMergeComplete
)

type searchDone struct {
	query  string
	result *models.ArtistSearchResult
	err    error
}

type mergeDone struct {
	playlist *models.Playlist
	artists  []string
	err      error
}

// loginDoneMsg is the constructor for [MsgLoginDone]
func loginDoneMsg(err error) Msg {
	return Msg{kind: MsgLoginDone, data: err}
}

// suggestionsMsg is the constructor for [MsgSuggestions]
func suggestionsMsg(r tasks.AutocompleteResult) Msg {
	return Msg{kind: MsgSuggestions, data: r}
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(query string, result *models.ArtistSearchResult, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchDone{query, result, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// mergeCompleteMsg is the constructor for [MsgMergeComplete]
func mergeCompleteMsg(playlist *models.Playlist, artists []string, err error) Msg {
	return Msg{kind: MsgMergeComplete, data: mergeDone{playlist, artists, err}}
}
