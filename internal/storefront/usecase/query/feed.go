package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/paging"
	"github.com/tair/storefront/pkg/logger"
)

// ItemFeed is an infinite item list whose sort order can change. Changing
// the sort purges the cached pages of the feed and starts over at page 1.
type ItemFeed struct {
	*paging.Pager[domain.Item]

	cache Invalidator
	scope string

	mu   sync.Mutex
	sort domain.SortState
}

func newItemFeed(cache Invalidator, scope string, sort domain.SortState, fetch func(ctx context.Context, sort domain.SortState, page int) (paging.Page[domain.Item], error)) *ItemFeed {
	if sort == "" {
		sort = domain.SortNewest
	}
	f := &ItemFeed{cache: cache, scope: scope, sort: sort}
	f.Pager = paging.New(func(ctx context.Context, page int) (paging.Page[domain.Item], error) {
		return fetch(ctx, f.Sort(), page)
	})
	return f
}

// Sort returns the current sort state
func (f *ItemFeed) Sort() domain.SortState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sort
}

// SetSort switches the order. A different order resets the feed.
func (f *ItemFeed) SetSort(ctx context.Context, sort domain.SortState) error {
	if !sort.Valid() {
		return fmt.Errorf("unknown sort %q", sort)
	}

	f.mu.Lock()
	changed := f.sort != sort
	f.sort = sort
	f.mu.Unlock()

	if !changed {
		return nil
	}
	if f.cache != nil {
		if err := f.cache.InvalidatePrefix(ctx, f.scope); err != nil {
			logger.Warn(ctx).Err(err).Str("scope", f.scope).Msg("Failed to purge cached pages")
		}
	}
	return f.Reset(ctx)
}
