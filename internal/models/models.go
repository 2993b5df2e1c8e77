package models

// Artist is a performer returned by artist search.
type Artist struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ImageURL    string   `json:"image_url,omitempty"`
	Followers   int      `json:"followers"`
	Genres      []string `json:"genres,omitempty"`
	ExternalURL string   `json:"external_url,omitempty"`
}

// ArtistSearchResult is one page of artist search results in provider relevance order.
type ArtistSearchResult struct {
	Items    []Artist `json:"items"`
	Total    int      `json:"total"`
	Limit    int      `json:"limit"`
	Offset   int      `json:"offset"`
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
}

// Empty reports whether the page carries no artists.
func (r *ArtistSearchResult) Empty() bool {
	return r == nil || len(r.Items) == 0
}

// Track is a playable track. URI is the provider's canonical identifier (spotify:track:<id>).
type Track struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists,omitempty"`
	Popularity int      `json:"popularity"`
}

// Playlist is a playlist owned by the authenticated user.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Public      bool   `json:"public"`
	ExternalURL string `json:"external_url,omitempty"`
	TrackCount  int    `json:"track_count"`
}

// User is the authenticated user's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Name returns the display name, falling back to the user id.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}
