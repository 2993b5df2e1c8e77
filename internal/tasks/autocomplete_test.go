package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mergemix/internal/models"
)

type mockSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (m *mockSearcher) SearchArtists(ctx context.Context, query string) (*models.ArtistSearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &models.ArtistSearchResult{Items: []models.Artist{{ID: "id-" + query, Name: query}}}, nil
}

func (m *mockSearcher) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

func receive(t *testing.T, a *Autocompleter) AutocompleteResult {
	t.Helper()
	select {
	case r := <-a.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no autocomplete result delivered")
		return AutocompleteResult{}
	}
}

func TestAutocompleter(t *testing.T) {
	const delay = 40 * time.Millisecond

	t.Run("Coalesces rapid input", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		searcher := &mockSearcher{}
		a := NewAutocompleter(ctx, searcher, AutocompleteOpts{Delay: delay})

		a.Input("ra")
		a.Input("rad")
		a.Input(" radi ")

		r := receive(t, a)
		if r.Query != "radi" || r.Err != nil || r.Hide {
			t.Fatalf("unexpected result %+v", r)
		}
		if r.Result.Items[0].Name != "radi" {
			t.Errorf("unexpected items %+v", r.Result.Items)
		}
		if !a.IsCurrent(r) {
			t.Error("result for the last input should be current")
		}

		time.Sleep(2 * delay)
		if calls := searcher.calls(); len(calls) != 1 || calls[0] != "radi" {
			t.Errorf("expected one search for radi, got %v", calls)
		}
	})

	t.Run("Short query hides without searching", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		searcher := &mockSearcher{}
		a := NewAutocompleter(ctx, searcher, AutocompleteOpts{Delay: delay})

		a.Input("rad")
		a.Input("r")

		r := receive(t, a)
		if !r.Hide || r.Query != "r" {
			t.Fatalf("expected hide result, got %+v", r)
		}

		time.Sleep(3 * delay)
		if calls := searcher.calls(); len(calls) != 0 {
			t.Errorf("pending search should have been cancelled, got %v", calls)
		}
	})

	t.Run("Stale results are detectable", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		a := NewAutocompleter(ctx, &mockSearcher{}, AutocompleteOpts{Delay: delay})

		a.Input("ab")
		first := receive(t, a)
		a.Input("abc")

		if a.IsCurrent(first) {
			t.Error("earlier result should be stale after new input")
		}
		if second := receive(t, a); !a.IsCurrent(second) || second.Seq <= first.Seq {
			t.Errorf("unexpected second result %+v", second)
		}
	})

	t.Run("Errors are delivered", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		boom := errors.New("boom")
		a := NewAutocompleter(ctx, &mockSearcher{err: boom}, AutocompleteOpts{Delay: delay})

		a.Input("abc")
		if r := receive(t, a); !errors.Is(r.Err, boom) || r.Result != nil {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("Stop cancels pending search", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		searcher := &mockSearcher{}
		a := NewAutocompleter(ctx, searcher, AutocompleteOpts{Delay: delay})

		a.Input("abc")
		a.Stop()

		time.Sleep(3 * delay)
		if calls := searcher.calls(); len(calls) != 0 {
			t.Errorf("expected no searches after Stop, got %v", calls)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		a := NewAutocompleter(context.Background(), &mockSearcher{}, AutocompleteOpts{})
		if a.delay != DebounceDelay || a.minLen != MinQueryLength {
			t.Errorf("unexpected defaults %v %d", a.delay, a.minLen)
		}
	})
}
