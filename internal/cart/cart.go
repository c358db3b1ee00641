// Package cart keeps each user's shopping list in durable storage.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/money"
	"github.com/tair/storefront/internal/storage"
)

var (
	ErrAlreadyInCart   = errors.New("item is already in the shopping list")
	ErrNotInCart       = errors.New("item is not in the shopping list")
	ErrCorruptList     = errors.New("stored shopping list is corrupt")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Line is one product in the shopping list. The JSON layout is the durable
// format and must stay stable.
type Line struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Quantity int             `json:"orderCount"`
}

// MarshalJSON keeps the stored price a plain number
func (l Line) MarshalJSON() ([]byte, error) {
	type line Line
	return json.Marshal(struct {
		line
		Price json.Number `json:"price"`
	}{line(l), money.Number(l.Price)})
}

// Subtotal returns price x quantity
func (l Line) Subtotal() decimal.Decimal {
	return money.Line(l.Price, l.Quantity)
}

// LineFromItem builds a cart line for an item
func LineFromItem(item domain.Item, quantity int) Line {
	return Line{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.SalePrice,
		ImageURL: item.Thumbnail(),
		Quantity: quantity,
	}
}

// Total sums every line
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Key returns the durable key of a user's list
func Key(appName, userID string) string {
	return fmt.Sprintf("%s_SHOPPING_LIST-%s", appName, userID)
}

// Store reads and writes shopping lists. All mutations are
// read-modify-write under one lock so concurrent adds cannot both pass the
// duplicate check.
type Store struct {
	kv      storage.Store
	appName string
	mu      sync.Mutex
}

// NewStore creates a shopping list store
func NewStore(kv storage.Store, appName string) *Store {
	return &Store{kv: kv, appName: appName}
}

// List returns the user's lines. A missing list is empty.
func (s *Store) List(ctx context.Context, userID string) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID)
}

// Exists reports whether the product is in the user's list
func (s *Store) Exists(ctx context.Context, userID, productID string) (bool, error) {
	lines, err := s.List(ctx, userID)
	if err != nil {
		return false, err
	}
	return indexOf(lines, productID) >= 0, nil
}

// Save overwrites the user's list
func (s *Store) Save(ctx context.Context, userID string, lines []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, userID, lines)
}

// Add appends a line. Adding a product that is already present fails with
// ErrAlreadyInCart and leaves the list unchanged.
func (s *Store) Add(ctx context.Context, userID string, line Line) ([]Line, error) {
	if line.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, func(lines []Line) ([]Line, error) {
		if indexOf(lines, line.ID) >= 0 {
			return nil, ErrAlreadyInCart
		}
		return append(lines, line), nil
	})
}

// SetQuantity changes the quantity of one line
func (s *Store) SetQuantity(ctx context.Context, userID, productID string, quantity int) ([]Line, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, func(lines []Line) ([]Line, error) {
		i := indexOf(lines, productID)
		if i < 0 {
			return nil, ErrNotInCart
		}
		lines[i].Quantity = quantity
		return lines, nil
	})
}

// Remove deletes one line
func (s *Store) Remove(ctx context.Context, userID, productID string) ([]Line, error) {
	return s.mutate(ctx, userID, func(lines []Line) ([]Line, error) {
		i := indexOf(lines, productID)
		if i < 0 {
			return nil, ErrNotInCart
		}
		return append(lines[:i], lines[i+1:]...), nil
	})
}

// RemoveMany deletes every listed product that is present. Unknown ids are
// ignored; checkout uses this after an order is placed.
func (s *Store) RemoveMany(ctx context.Context, userID string, productIDs []string) ([]Line, error) {
	drop := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		drop[id] = struct{}{}
	}
	return s.mutate(ctx, userID, func(lines []Line) ([]Line, error) {
		kept := lines[:0]
		for _, l := range lines {
			if _, ok := drop[l.ID]; !ok {
				kept = append(kept, l)
			}
		}
		return kept, nil
	})
}

// Reset discards the user's list, including a corrupt one
func (s *Store) Reset(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, Key(s.appName, userID)); err != nil {
		return fmt.Errorf("failed to reset shopping list: %w", err)
	}
	return nil
}

func (s *Store) mutate(ctx context.Context, userID string, fn func([]Line) ([]Line, error)) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, err := fn(lines)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, userID, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) load(ctx context.Context, userID string) ([]Line, error) {
	raw, err := s.kv.Get(ctx, Key(s.appName, userID))
	if errors.Is(err, storage.ErrNotFound) {
		return []Line{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read shopping list: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptList, err)
	}
	if lines == nil {
		lines = []Line{}
	}
	return lines, nil
}

func (s *Store) save(ctx context.Context, userID string, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode shopping list: %w", err)
	}
	if err := s.kv.Set(ctx, Key(s.appName, userID), raw); err != nil {
		return fmt.Errorf("failed to save shopping list: %w", err)
	}
	return nil
}

func indexOf(lines []Line, productID string) int {
	for i, l := range lines {
		if l.ID == productID {
			return i
		}
	}
	return -1
}
