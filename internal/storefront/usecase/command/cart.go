package command

import (
	"context"
	"fmt"

	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/pkg/logger"
)

// cartWriter is shared by the shopping list commands. It keeps the Cart
// cell in step with durable storage after every successful write. Writes run
// under the cell's lock so the cell always holds the last stored list.
type cartWriter struct {
	carts *cart.Store
	users CurrentUser
	cell  *state.Cell[[]cart.Line]
}

func (w cartWriter) apply(ctx context.Context, fn func(userID string) ([]cart.Line, error)) ([]cart.Line, error) {
	user, err := w.users.RequireUser()
	if err != nil {
		return nil, err
	}
	return w.cell.TryUpdate(func([]cart.Line) ([]cart.Line, error) {
		return fn(user.ID)
	})
}

// LoadCartHandler reads the stored list into the Cart cell
type LoadCartHandler struct {
	cartWriter
}

// NewLoadCartHandler creates a new load cart handler
func NewLoadCartHandler(carts *cart.Store, users CurrentUser, cell *state.Cell[[]cart.Line]) *LoadCartHandler {
	return &LoadCartHandler{cartWriter{carts: carts, users: users, cell: cell}}
}

// Handle executes the load cart command
func (h *LoadCartHandler) Handle(ctx context.Context) ([]cart.Line, error) {
	return h.apply(ctx, func(userID string) ([]cart.Line, error) {
		return h.carts.List(ctx, userID)
	})
}

// AddToCartCommand puts an item in the shopping list
type AddToCartCommand struct {
	Item     domain.Item
	Quantity int
}

// AddToCartHandler handles add to cart command
type AddToCartHandler struct {
	cartWriter
}

// NewAddToCartHandler creates a new add to cart handler
func NewAddToCartHandler(carts *cart.Store, users CurrentUser, cell *state.Cell[[]cart.Line]) *AddToCartHandler {
	return &AddToCartHandler{cartWriter{carts: carts, users: users, cell: cell}}
}

// Handle executes the add to cart command. An item already in the list is
// rejected with cart.ErrAlreadyInCart.
func (h *AddToCartHandler) Handle(ctx context.Context, cmd AddToCartCommand) ([]cart.Line, error) {
	if cmd.Quantity == 0 {
		cmd.Quantity = 1
	}
	if cmd.Quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	if cmd.Item.ID == "" {
		return nil, fmt.Errorf("item id is required")
	}

	lines, err := h.apply(ctx, func(userID string) ([]cart.Line, error) {
		return h.carts.Add(ctx, userID, cart.LineFromItem(cmd.Item, cmd.Quantity))
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx).Str("item_id", cmd.Item.ID).Int("quantity", cmd.Quantity).Msg("Added to shopping list")
	return lines, nil
}

// SetQuantityCommand changes the quantity of one line
type SetQuantityCommand struct {
	ProductID string
	Quantity  int
}

// SetQuantityHandler handles set quantity command
type SetQuantityHandler struct {
	cartWriter
}

// NewSetQuantityHandler creates a new set quantity handler
func NewSetQuantityHandler(carts *cart.Store, users CurrentUser, cell *state.Cell[[]cart.Line]) *SetQuantityHandler {
	return &SetQuantityHandler{cartWriter{carts: carts, users: users, cell: cell}}
}

// Handle executes the set quantity command
func (h *SetQuantityHandler) Handle(ctx context.Context, cmd SetQuantityCommand) ([]cart.Line, error) {
	return h.apply(ctx, func(userID string) ([]cart.Line, error) {
		return h.carts.SetQuantity(ctx, userID, cmd.ProductID, cmd.Quantity)
	})
}

// RemoveFromCartCommand drops lines from the shopping list
type RemoveFromCartCommand struct {
	ProductIDs []string
}

// RemoveFromCartHandler handles remove from cart command
type RemoveFromCartHandler struct {
	cartWriter
}

// NewRemoveFromCartHandler creates a new remove from cart handler
func NewRemoveFromCartHandler(carts *cart.Store, users CurrentUser, cell *state.Cell[[]cart.Line]) *RemoveFromCartHandler {
	return &RemoveFromCartHandler{cartWriter{carts: carts, users: users, cell: cell}}
}

// Handle executes the remove from cart command. A single id must be in the
// list; several ids drop whatever matches.
func (h *RemoveFromCartHandler) Handle(ctx context.Context, cmd RemoveFromCartCommand) ([]cart.Line, error) {
	if len(cmd.ProductIDs) == 0 {
		return nil, ErrNothingSelected
	}
	return h.apply(ctx, func(userID string) ([]cart.Line, error) {
		if len(cmd.ProductIDs) == 1 {
			return h.carts.Remove(ctx, userID, cmd.ProductIDs[0])
		}
		return h.carts.RemoveMany(ctx, userID, cmd.ProductIDs)
	})
}

// ResetCartHandler empties the shopping list, including a corrupt one
type ResetCartHandler struct {
	cartWriter
}

// NewResetCartHandler creates a new reset cart handler
func NewResetCartHandler(carts *cart.Store, users CurrentUser, cell *state.Cell[[]cart.Line]) *ResetCartHandler {
	return &ResetCartHandler{cartWriter{carts: carts, users: users, cell: cell}}
}

// Handle executes the reset cart command
func (h *ResetCartHandler) Handle(ctx context.Context) error {
	_, err := h.apply(ctx, func(userID string) ([]cart.Line, error) {
		if err := h.carts.Reset(ctx, userID); err != nil {
			return nil, err
		}
		return []cart.Line{}, nil
	})
	return err
}
