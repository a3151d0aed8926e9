package wiki

import (
	"context"
	"fmt"
	"sync"

	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

// Source is a search session over one query. The search runs once; every
// page request fetches the extract again.
type Source struct {
	api   API
	query string

	mu       sync.Mutex
	results  []Stub
	searched bool
}

// NewSource creates a session for query. Nothing is fetched until EnsureSearched.
func NewSource(api API, query string) *Source {
	return &Source{api: api, query: query}
}

// Query returns the search text of the session.
func (s *Source) Query() string {
	return s.query
}

// EnsureSearched runs the title search if it has not completed yet. A failed
// search leaves the session unsearched so a later call can try again.
func (s *Source) EnsureSearched(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.searched {
		stubs, err := s.api.Search(ctx, s.query, SearchLimit)
		if err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "search encyclopedia")
		}
		if len(stubs) > SearchLimit {
			stubs = stubs[:SearchLimit]
		}
		s.results = stubs
		s.searched = true
	}

	if len(s.results) == 0 {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeEmptyResult,
			"no results", ErrEmptyResultSet, map[string]any{"query": s.query})
	}
	return nil
}

// PageCount returns the number of results, or zero before the search.
func (s *Source) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// FetchPage fetches the extract for the result at index and builds its page.
func (s *Source) FetchPage(ctx context.Context, index int) (ResultPage, error) {
	s.mu.Lock()
	if !s.searched {
		s.mu.Unlock()
		return ResultPage{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"fetch page", ErrNotSearched)
	}
	if index < 0 || index >= len(s.results) {
		count := len(s.results)
		s.mu.Unlock()
		return ResultPage{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			fmt.Sprintf("fetch page %d of %d", index, count), ErrIndexOutOfRange)
	}
	stub := s.results[index]
	s.mu.Unlock()

	extract, err := s.api.PageExtract(ctx, stub.ID)
	if err != nil {
		return ResultPage{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "fetch extract")
	}
	return newResultPage(stub, extract), nil
}

// IsRetrievable reports whether err is a transient failure of the remote source.
func IsRetrievable(err error) bool {
	return platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal)
}
