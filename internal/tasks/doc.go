// Package tasks orchestrates the long-running mergemix operations with real-time progress reporting.
//
// # Merging
//
// [MergeEngine.CreateMergedPlaylist] turns a selection of artists into one playlist:
//
//  1. Refuses to run below [RequiredArtists] selected artists
//  2. Fetches each artist's top tracks concurrently, capped at [TracksPerArtist]
//  3. Flattens and shuffles the track URIs ([Shuffle])
//  4. Creates the playlist under a name built by [PlaylistName]
//
// Any failed fetch fails the whole merge before a playlist is created.
//
// # Autocomplete
//
// [Autocompleter] debounces keystrokes into artist searches. Results are delivered on a channel tagged with a
// sequence number; consumers drop anything that is not [Autocompleter.IsCurrent].
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends never block: when the channel is full
// the update is dropped.
package tasks
