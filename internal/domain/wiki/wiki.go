// Package wiki models encyclopedia search results and the lazily fetched
// session that turns them into display-ready pages.
package wiki

import (
	"context"
	"errors"
	"strings"
)

const (
	// SearchLimit caps the number of candidates a search returns.
	SearchLimit = 10
	// SummaryUnavailable is shown when neither an extract nor a description exists.
	SummaryUnavailable = "*[Summary unavailable]*"

	articleURLBase = "https://en.wikipedia.org/wiki/"
)

var (
	// ErrEmptyResultSet means the search found nothing.
	ErrEmptyResultSet = errors.New("empty result set")
	// ErrIndexOutOfRange is a caller bug: a page outside [0, PageCount) was requested.
	ErrIndexOutOfRange = errors.New("page index out of range")
	// ErrNotSearched is a caller bug: a page was requested before the search ran.
	ErrNotSearched = errors.New("search has not run")
)

// Stub is a search hit before its extract is fetched.
type Stub struct {
	ID          int64
	Key         string
	Title       string
	Description string
	// ThumbnailURL is the raw reference as returned by the API, possibly protocol-relative.
	ThumbnailURL string
}

// ResultPage is one display-ready record.
type ResultPage struct {
	Title        string
	Body         string
	LinkURL      string
	ThumbnailURL string
}

// API is the remote encyclopedia.
type API interface {
	Search(ctx context.Context, query string, limit int) ([]Stub, error)
	PageExtract(ctx context.Context, pageID int64) (string, error)
}

// ArticleURL returns the public article link for a page key.
func ArticleURL(key string) string {
	return articleURLBase + key
}

// NormalizeThumbnail qualifies protocol-relative references with https.
func NormalizeThumbnail(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	return ref
}

func newResultPage(stub Stub, extract string) ResultPage {
	body := strings.TrimSpace(extract)
	if body == "" {
		body = strings.TrimSpace(stub.Description)
	}
	if body == "" {
		body = SummaryUnavailable
	}
	return ResultPage{
		Title:        stub.Title,
		Body:         body,
		LinkURL:      ArticleURL(stub.Key),
		ThumbnailURL: NormalizeThumbnail(stub.ThumbnailURL),
	}
}
