// Package help renders command help as a sequence of embed pages.
package help

import (
	"strings"
	"unicode/utf8"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
)

// DefaultPageSize is the largest description a page receives, in characters.
const DefaultPageSize = 2000

// Paginator accumulates lines and splits them into pages that fit the size limit.
type Paginator struct {
	Title string

	maxSize int
	pages   []string
	current strings.Builder
}

// NewPaginator creates a paginator with the given page size.
func NewPaginator(maxSize int) *Paginator {
	if maxSize <= 0 {
		maxSize = DefaultPageSize
	}
	return &Paginator{maxSize: maxSize}
}

// AddLine appends a line, optionally followed by a blank line. Lines longer
// than a page are split.
func (p *Paginator) AddLine(line string, empty bool) {
	for utf8.RuneCountInString(line) > p.maxSize {
		runes := []rune(line)
		p.AddLine(string(runes[:p.maxSize]), false)
		line = string(runes[p.maxSize:])
	}

	size := utf8.RuneCountInString(p.current.String()) + utf8.RuneCountInString(line) + 1
	if empty {
		size++
	}
	if p.current.Len() > 0 && size > p.maxSize {
		p.closePage()
	}

	p.current.WriteString(line)
	p.current.WriteByte('\n')
	if empty {
		p.current.WriteByte('\n')
	}
}

// Pages renders the accumulated text as embeds.
func (p *Paginator) Pages(colour int, thumbnailURL string) []chat.Embed {
	pages := p.pages
	if p.current.Len() > 0 {
		pages = append(pages[:len(pages):len(pages)], p.current.String())
	}

	out := make([]chat.Embed, 0, len(pages))
	for _, page := range pages {
		out = append(out, chat.Embed{
			Title:        p.Title,
			Description:  strings.TrimRight(page, "\n"),
			Colour:       colour,
			ThumbnailURL: thumbnailURL,
		})
	}
	return out
}

func (p *Paginator) closePage() {
	p.pages = append(p.pages, p.current.String())
	p.current.Reset()
}
