package selection

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/mergemix/internal/models"
)

func artist(id string) models.Artist {
	return models.Artist{ID: id, Name: strings.ToUpper(id)}
}

func TestSet(t *testing.T) {
	t.Run("Add keeps insertion order and ignores duplicates", func(t *testing.T) {
		s := New()
		for _, id := range []string{"b", "a", "c"} {
			if !s.Add(artist(id)) {
				t.Fatalf("Add(%s) should report new", id)
			}
		}
		if s.Add(models.Artist{ID: "a", Name: "other"}) {
			t.Error("duplicate id should not be added")
		}
		if s.Add(models.Artist{Name: "no id"}) {
			t.Error("artist without id should not be added")
		}

		if got := strings.Join(s.Names(), ","); got != "B,A,C" {
			t.Errorf("Names() = %s", got)
		}
		if s.Values()[1].Name != "A" {
			t.Error("duplicate add must not overwrite the original entry")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		s := New(artist("a"), artist("b"), artist("c"))

		if !s.Remove("b") {
			t.Error("Remove(b) should report present")
		}
		if s.Remove("b") {
			t.Error("second Remove(b) should report absent")
		}
		if s.Has("b") || s.Size() != 2 {
			t.Errorf("unexpected state after remove: size %d", s.Size())
		}
		if got := strings.Join(s.Names(), ","); got != "A,C" {
			t.Errorf("Names() = %s", got)
		}
	})

	t.Run("Toggle", func(t *testing.T) {
		s := New()
		if !s.Toggle(artist("a")) || !s.Has("a") {
			t.Error("first toggle should select")
		}
		if s.Toggle(artist("a")) || s.Has("a") {
			t.Error("second toggle should deselect")
		}
	})

	t.Run("Ready", func(t *testing.T) {
		tc := []struct {
			ids  []string
			want bool
		}{
			{ids: nil, want: false},
			{ids: []string{"a", "b"}, want: false},
			{ids: []string{"a", "b", "c"}, want: true},
			{ids: []string{"a", "b", "c", "d"}, want: true},
		}

		for _, tt := range tc {
			t.Run(fmt.Sprintf("%d artists", len(tt.ids)), func(t *testing.T) {
				s := New()
				for _, id := range tt.ids {
					s.Add(artist(id))
				}
				if got := s.Ready(3); got != tt.want {
					t.Errorf("Ready(3) = %v, want %v", got, tt.want)
				}
			})
		}
	})

	t.Run("Values is a copy", func(t *testing.T) {
		s := New(artist("a"))
		v := s.Values()
		v[0].Name = "changed"
		if s.Values()[0].Name != "A" {
			t.Error("mutating Values() should not affect the set")
		}
	})

	t.Run("Zero value", func(t *testing.T) {
		var s Set
		if s.Has("a") || s.Remove("a") || s.Size() != 0 {
			t.Error("zero value should be empty")
		}
		if !s.Add(artist("a")) || !s.Toggle(artist("b")) {
			t.Fatal("zero value should accept artists")
		}
		if got := s.Names(); len(got) != 2 {
			t.Errorf("Names() = %v", got)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := New(artist("a"), artist("b"))
		s.Clear()
		if s.Size() != 0 || s.Has("a") {
			t.Error("Clear should empty the set")
		}
		if !s.Add(artist("a")) {
			t.Error("set should be usable after Clear")
		}
	})

	t.Run("Concurrent use", func(t *testing.T) {
		s := New()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s.Add(artist(fmt.Sprintf("a%d", i%10)))
				_ = s.Values()
			}(i)
		}
		wg.Wait()
		if s.Size() != 10 {
			t.Errorf("Size() = %d, want 10", s.Size())
		}
	})
}
