// Package likes keeps the signed-in user's like list with optimistic
// updates: the local list changes first and is reverted when the backend
// rejects the change.
package likes

import (
	"context"
	"fmt"
	"sync"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/pkg/logger"
)

// Remote is the backend side of the like list
type Remote interface {
	LikeList(ctx context.Context) (*domain.LikeList, error)
	LikeItem(ctx context.Context, itemID string) error
	UnlikeItem(ctx context.Context, itemID string) error
}

// List owns the likes cell of the application state
type List struct {
	remote Remote
	cell   *state.Cell[domain.LikeList]
	mu     sync.Mutex
}

// New creates a like list writing to cell
func New(remote Remote, cell *state.Cell[domain.LikeList]) *List {
	return &List{remote: remote, cell: cell}
}

// Load replaces the local list with the backend's
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.remote.LikeList(ctx)
	if err != nil {
		return fmt.Errorf("failed to load like list: %w", err)
	}
	if list.Items == nil {
		list.Items = []domain.Item{}
	}
	l.cell.Set(*list)
	return nil
}

// Contains reports whether itemID is liked locally
func (l *List) Contains(itemID string) bool {
	return l.cell.Get().Contains(itemID)
}

// Items returns the local list
func (l *List) Items() []domain.Item {
	return l.cell.Get().Items
}

// Like appends item locally and confirms with the backend. A rejected call
// removes it again. Liking an already liked item does nothing.
func (l *List) Like(ctx context.Context, item domain.Item) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cell.Get().Contains(item.ID) {
		return nil
	}
	l.cell.Update(func(list domain.LikeList) domain.LikeList {
		list.Items = append(cloneItems(list.Items), item)
		return list
	})

	if err := l.remote.LikeItem(ctx, item.ID); err != nil {
		l.cell.Update(func(list domain.LikeList) domain.LikeList {
			list.Items = without(list.Items, item.ID)
			return list
		})
		logger.Warn(ctx).Err(err).Str("item_id", item.ID).Msg("Like reverted")
		return err
	}
	return nil
}

// Unlike removes itemID locally and confirms with the backend. A rejected
// call puts the item back at its original position.
func (l *List) Unlike(ctx context.Context, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.cell.Get()
	index := current.IndexOf(itemID)
	if index < 0 {
		return nil
	}
	removed := current.Items[index]

	l.cell.Update(func(list domain.LikeList) domain.LikeList {
		list.Items = without(list.Items, itemID)
		return list
	})

	if err := l.remote.UnlikeItem(ctx, itemID); err != nil {
		l.cell.Update(func(list domain.LikeList) domain.LikeList {
			list.Items = insertAt(list.Items, index, removed)
			return list
		})
		logger.Warn(ctx).Err(err).Str("item_id", itemID).Msg("Unlike reverted")
		return err
	}
	return nil
}

func cloneItems(items []domain.Item) []domain.Item {
	return append(make([]domain.Item, 0, len(items)+1), items...)
}

func without(items []domain.Item, itemID string) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.ID != itemID {
			out = append(out, it)
		}
	}
	return out
}

func insertAt(items []domain.Item, index int, item domain.Item) []domain.Item {
	if index > len(items) {
		index = len(items)
	}
	out := make([]domain.Item, 0, len(items)+1)
	out = append(out, items[:index]...)
	out = append(out, item)
	return append(out, items[index:]...)
}
