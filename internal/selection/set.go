// Package selection holds the artists a user has picked for a merge.
package selection

import (
	"sync"

	"github.com/desertthunder/mergemix/internal/models"
)

// Set is an insertion-ordered set of artists keyed by id. It is safe for concurrent use,
// and the zero value is an empty set.
type Set struct {
	mu    sync.Mutex
	order []string
	byID  map[string]models.Artist
}

// New returns a set seeded with artists; duplicates are dropped.
func New(artists ...models.Artist) *Set {
	s := &Set{}
	for _, a := range artists {
		s.Add(a)
	}
	return s
}

// Add inserts a and reports whether it was new. An artist whose id is already present is ignored.
func (s *Set) Add(a models.Artist) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		return false
	}
	if _, ok := s.byID[a.ID]; ok {
		return false
	}
	if s.byID == nil {
		s.byID = make(map[string]models.Artist)
	}
	s.byID[a.ID] = a
	s.order = append(s.order, a.ID)
	return true
}

// Remove deletes the artist with id and reports whether it was present.
func (s *Set) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Toggle removes a when present and adds it otherwise. It returns true when a is selected afterwards.
func (s *Set) Toggle(a models.Artist) bool {
	if s.Remove(a.ID) {
		return false
	}
	return s.Add(a)
}

func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

func (s *Set) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Values returns the artists in insertion order.
func (s *Set) Values() []models.Artist {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Artist, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Names returns the artist names in insertion order.
func (s *Set) Names() []string {
	values := s.Values()
	names := make([]string, len(values))
	for i, a := range values {
		names[i] = a.Name
	}
	return names
}

// Ready reports whether at least required artists are selected.
func (s *Set) Ready(required int) bool {
	return s.Size() >= required
}

// Clear removes every artist.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.byID = nil
}
