package models

import "testing"

func TestUserName(t *testing.T) {
	tc := []struct {
		name string
		user *User
		want string
	}{
		{name: "nil", user: nil, want: ""},
		{name: "display name", user: &User{ID: "u1", DisplayName: "Ada"}, want: "Ada"},
		{name: "falls back to id", user: &User{ID: "u1"}, want: "u1"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArtistSearchResultEmpty(t *testing.T) {
	var nilResult *ArtistSearchResult
	if !nilResult.Empty() {
		t.Error("nil result should be empty")
	}
	if !(&ArtistSearchResult{}).Empty() {
		t.Error("zero result should be empty")
	}
	if (&ArtistSearchResult{Items: []Artist{{ID: "a"}}}).Empty() {
		t.Error("result with items should not be empty")
	}
}
