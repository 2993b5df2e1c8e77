package tasks

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/mergemix/internal/models"
	"github.com/desertthunder/mergemix/internal/services"
)

const (
	// MinQueryLength is the shortest query that triggers a search.
	MinQueryLength = 2
	// DebounceDelay is the pause after the last keystroke before searching.
	DebounceDelay = 300 * time.Millisecond
)

// AutocompleteResult is delivered once per search, or once per query that was too short (Hide set).
type AutocompleteResult struct {
	Seq    uint64
	Query  string
	Result *models.ArtistSearchResult
	Err    error
	// Hide asks the consumer to clear any visible suggestions.
	Hide bool
}

// AutocompleteOpts configures an [Autocompleter]. Zero values use the package defaults.
type AutocompleteOpts struct {
	Delay     time.Duration
	MinLength int
	Buffer    int
}

// Autocompleter turns a stream of partial queries into debounced artist searches.
//
// Each call to [Autocompleter.Input] restarts the timer. Searches already in flight are not cancelled; the
// sequence number on each result lets the consumer discard responses that arrive out of order.
type Autocompleter struct {
	ctx      context.Context
	searcher services.ArtistSearcher
	delay    time.Duration
	minLen   int
	results  chan AutocompleteResult

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewAutocompleter creates an Autocompleter. Searches run with ctx; cancelling it stops delivery.
func NewAutocompleter(ctx context.Context, searcher services.ArtistSearcher, opts AutocompleteOpts) *Autocompleter {
	if opts.Delay <= 0 {
		opts.Delay = DebounceDelay
	}
	if opts.MinLength <= 0 {
		opts.MinLength = MinQueryLength
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 8
	}
	return &Autocompleter{
		ctx:      ctx,
		searcher: searcher,
		delay:    opts.Delay,
		minLen:   opts.MinLength,
		results:  make(chan AutocompleteResult, opts.Buffer),
	}
}

// Input records the latest query text.
func (a *Autocompleter) Input(query string) {
	query = strings.TrimSpace(query)

	a.mu.Lock()
	a.seq++
	seq := a.seq
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	if utf8.RuneCountInString(query) < a.minLen {
		a.mu.Unlock()
		go a.deliver(AutocompleteResult{Seq: seq, Query: query, Hide: true})
		return
	}

	a.timer = time.AfterFunc(a.delay, func() {
		res, err := a.searcher.SearchArtists(a.ctx, query)
		a.deliver(AutocompleteResult{Seq: seq, Query: query, Result: res, Err: err})
	})
	a.mu.Unlock()
}

// Results returns the channel results are delivered on.
func (a *Autocompleter) Results() <-chan AutocompleteResult {
	return a.results
}

// IsCurrent reports whether r answers the most recent Input.
func (a *Autocompleter) IsCurrent(r AutocompleteResult) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return r.Seq == a.seq
}

// Stop cancels a pending search. Results already in flight are still delivered.
func (a *Autocompleter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autocompleter) deliver(r AutocompleteResult) {
	select {
	case a.results <- r:
	case <-a.ctx.Done():
	}
}
