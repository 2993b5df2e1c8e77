// Package models defines the provider-neutral data transfer objects shared by the mergemix packages.
//
//   - [Artist] : a search hit, immutable once fetched
//   - [ArtistSearchResult] : one page of artist search results
//   - [Track] : a top track; only its URI survives into a merged playlist
//   - [Playlist] : a playlist created on behalf of the user
//   - [User] : the profile of the authenticated user
//
// Services map provider JSON schemas into these types at the boundary, so nothing past
// the services package sees raw response shapes.
package models
