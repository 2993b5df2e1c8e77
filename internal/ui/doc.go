// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through the merge workflow:
//  1. [LoginView] : Start the browser login when no token is present
//  2. [SearchView] : Type to search artists, toggle them into the selection
//  3. [MergeView] : Monitor progress while the playlist is built
//  4. [ResultView] : Show the created playlist with its open and embed links
//
// Typing feeds a debounced [tasks.Autocompleter]; suggestions that answer an older query are dropped, so results
// never flash back to a stale list. Enter searches immediately.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the MergeEngine, providing non-blocking status reporting during a merge.
//
// Keyboard navigation uses tab to move between the input and the results, enter/space to select, and ctrl+s to
// create the playlist, with contextual help displayed via charmbracelet/bubbles/help.
package ui
