// package formatter renders artists, selections, and merge results as text, CSV, Markdown, or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/mergemix/internal/models"
	"github.com/desertthunder/mergemix/internal/shared"
	"github.com/dustin/go-humanize"
)

// Status lines shown by every surface.
const (
	StatusSearching     = "Searching..."
	StatusNoArtists     = "No artists found"
	StatusSearchFailed  = "Error searching for artists. Please try again."
	StatusCreating      = "Creating playlist..."
	StatusCreated       = "Playlist created successfully!"
	StatusCreateFailed  = "Error creating playlist. Please try again."
	StatusLoginRequired = "Please log in with Spotify to continue."
	embedURLPrefix      = "https://open.spotify.com/embed/playlist/"
	playlistURLPrefix   = "https://open.spotify.com/playlist/"
)

// Format names accepted by [Artists].
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// Followers renders a follower count with thousands separators, e.g. "1,234,567 followers".
func Followers(n int) string {
	return humanize.Comma(int64(n)) + " followers"
}

// Initials returns the first letter of each space separated word, used when an artist has no image.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Split(name, " ") {
		if r, _ := utf8.DecodeRuneInString(word); r != utf8.RuneError {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// EmbedURL returns the embeddable player URL for a playlist.
func EmbedURL(playlistID string) string {
	return embedURLPrefix + playlistID
}

// PlaylistURL returns the public web URL for a playlist.
func PlaylistURL(p *models.Playlist) string {
	if p.ExternalURL != "" {
		return p.ExternalURL
	}
	return playlistURLPrefix + p.ID
}

// MergeStatus describes how close a selection is to being mergeable.
func MergeStatus(selected, required int) string {
	if selected >= required {
		return fmt.Sprintf("%d artists selected", selected)
	}
	return fmt.Sprintf("Select at least %d artists", required)
}

// Artists renders artists in the named format.
func Artists(artists []models.Artist, format string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ArtistsToText(artists), nil
	case FormatJSON:
		return shared.MarshalJSON(artists, true)
	case FormatCSV:
		return ArtistsToCSV(artists)
	case FormatMarkdown:
		return ArtistsToMarkdown(artists), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// ArtistsToText renders one numbered line per artist.
func ArtistsToText(artists []models.Artist) []byte {
	if len(artists) == 0 {
		return []byte(StatusNoArtists + "\n")
	}

	var buf bytes.Buffer
	for i, a := range artists {
		fmt.Fprintf(&buf, "%d. %s (%s)", i+1, a.Name, Followers(a.Followers))
		if len(a.Genres) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(a.Genres, ", "))
		}
		buf.WriteString("\n")
		if a.ExternalURL != "" {
			fmt.Fprintf(&buf, "   %s\n", a.ExternalURL)
		}
	}
	return buf.Bytes()
}

// ArtistsToCSV converts artists to CSV with columns: ID, Name, Followers, Genres, URL
func ArtistsToCSV(artists []models.Artist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Followers", "Genres", "URL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range artists {
		record := []string{a.ID, a.Name, strconv.Itoa(a.Followers), strings.Join(a.Genres, ";"), a.ExternalURL}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ArtistsToMarkdown renders a bullet list linking each artist.
func ArtistsToMarkdown(artists []models.Artist) []byte {
	var buf bytes.Buffer
	buf.WriteString("## Artists\n\n")
	if len(artists) == 0 {
		buf.WriteString("_" + StatusNoArtists + "_\n")
		return buf.Bytes()
	}

	for _, a := range artists {
		name := a.Name
		if a.ExternalURL != "" {
			name = fmt.Sprintf("[%s](%s)", a.Name, a.ExternalURL)
		}
		fmt.Fprintf(&buf, "- **%s**: %s", name, Followers(a.Followers))
		if len(a.Genres) > 0 {
			fmt.Fprintf(&buf, " (%s)", strings.Join(a.Genres, ", "))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// MergeSummary is the machine-readable result of a merge.
type MergeSummary struct {
	Playlist *models.Playlist `json:"playlist"`
	Artists  []string         `json:"artists"`
	URL      string           `json:"url"`
	EmbedURL string           `json:"embed_url"`
}

// NewMergeSummary builds a [MergeSummary] for a created playlist.
func NewMergeSummary(p *models.Playlist, artists []string) MergeSummary {
	return MergeSummary{Playlist: p, Artists: artists, URL: PlaylistURL(p), EmbedURL: EmbedURL(p.ID)}
}

// MergeResultToText renders a created playlist for the terminal.
func MergeResultToText(s MergeSummary) []byte {
	var buf bytes.Buffer
	buf.WriteString(StatusCreated + "\n\n")
	fmt.Fprintf(&buf, "Playlist: %s\n", s.Playlist.Name)
	fmt.Fprintf(&buf, "Artists:  %s\n", strings.Join(s.Artists, ", "))
	fmt.Fprintf(&buf, "Tracks:   %d\n", s.Playlist.TrackCount)
	fmt.Fprintf(&buf, "Open:     %s\n", s.URL)
	fmt.Fprintf(&buf, "Embed:    %s\n", s.EmbedURL)
	return buf.Bytes()
}
