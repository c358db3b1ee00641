// Package paging accumulates the pages of an infinite list feed.
package paging

import (
	"context"
	"errors"
	"sync"

	"github.com/tair/storefront/internal/domain"
)

// ErrStalePage is returned by FetchNext when a Reset happened while the page
// was in flight. The page is dropped.
var ErrStalePage = errors.New("page belongs to a previous generation")

// Page is one fetched page of a feed
type Page[T any] struct {
	Items []T
	domain.Pagination
}

// FetchFunc loads the given 1-based page
type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// Pager accumulates pages in arrival order. At most one fetch is in flight.
type Pager[T any] struct {
	mu         sync.Mutex
	fetch      FetchFunc[T]
	pages      [][]T
	nextPage   int
	hasNext    bool
	started    bool
	fetching   bool
	total      int
	generation uint64
}

// New creates a pager that has not fetched anything yet
func New[T any](fetch FetchFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch, nextPage: 1}
}

// FetchNext loads the next page. It is a no-op returning false when a fetch
// is already in flight or the last page said there is no next page.
func (p *Pager[T]) FetchNext(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.fetching || (p.started && !p.hasNext) {
		p.mu.Unlock()
		return false, nil
	}
	page := p.nextPage
	gen := p.generation
	p.fetching = true
	p.mu.Unlock()

	res, err := p.fetch(ctx, page)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		return false, ErrStalePage
	}
	p.fetching = false
	if err != nil {
		return false, err
	}

	p.started = true
	p.pages = append(p.pages, res.Items)
	p.hasNext = res.HasNextPage
	p.total = res.TotalResults
	p.nextPage = res.NextPage
	if p.nextPage <= page {
		p.nextPage = page + 1
	}
	return true, nil
}

// FetchPages keeps fetching until n pages are loaded or the feed ends
func (p *Pager[T]) FetchPages(ctx context.Context, n int) error {
	for p.PageCount() < n {
		fetched, err := p.FetchNext(ctx)
		if err != nil {
			return err
		}
		if !fetched {
			return nil
		}
	}
	return nil
}

// Reset drops every accumulated page and fetches page 1 again. A fetch that
// was in flight when Reset ran is discarded on arrival.
func (p *Pager[T]) Reset(ctx context.Context) error {
	p.mu.Lock()
	p.generation++
	p.pages = nil
	p.nextPage = 1
	p.hasNext = false
	p.started = false
	p.fetching = false
	p.total = 0
	p.mu.Unlock()

	_, err := p.FetchNext(ctx)
	return err
}

// Items returns every accumulated item in page order
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()

	var n int
	for _, page := range p.pages {
		n += len(page)
	}
	out := make([]T, 0, n)
	for _, page := range p.pages {
		out = append(out, page...)
	}
	return out
}

// PageCount returns how many pages are loaded
func (p *Pager[T]) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// HasNextPage reports whether FetchNext would load more
func (p *Pager[T]) HasNextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.started || p.hasNext
}

// TotalResults is the backend's count from the latest page
func (p *Pager[T]) TotalResults() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Fetching reports whether a fetch is in flight
func (p *Pager[T]) Fetching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetching
}
