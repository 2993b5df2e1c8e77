package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mergemix/internal/formatter"
	"github.com/desertthunder/mergemix/internal/models"
)

var _ list.Item = artistItem{}

// artistItem wraps [models.Artist] to implement [list.Item].
type artistItem struct {
	artist   models.Artist
	selected bool
}

func (i artistItem) FilterValue() string { return i.artist.Name }

func (i artistItem) Title() string {
	mark := "  "
	if i.selected {
		mark = "✓ "
	}
	return fmt.Sprintf("%s[%s] %s", mark, formatter.Initials(i.artist.Name), i.artist.Name)
}

func (i artistItem) Description() string {
	desc := fmt.Sprintf("%s followers", formatter.Followers(i.artist.Followers))
	if len(i.artist.Genres) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.artist.Genres, ", "))
	}
	return desc
}
