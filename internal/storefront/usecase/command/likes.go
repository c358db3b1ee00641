package command

import (
	"context"
	"fmt"

	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/likes"
)

// LikeItemCommand toggles an item on the like list
type LikeItemCommand struct {
	Item  domain.Item
	Liked bool // desired state
}

// LikeItemHandler handles like item command
type LikeItemHandler struct {
	likes *likes.List
}

// NewLikeItemHandler creates a new like item handler
func NewLikeItemHandler(list *likes.List) *LikeItemHandler {
	return &LikeItemHandler{likes: list}
}

// Handle executes the like item command
func (h *LikeItemHandler) Handle(ctx context.Context, cmd LikeItemCommand) error {
	if cmd.Liked {
		return h.likes.Like(ctx, cmd.Item)
	}
	return h.likes.Unlike(ctx, cmd.Item.ID)
}

// LikedToCartCommand moves a liked item into the shopping list
type LikedToCartCommand struct {
	ItemID string
}

// LikedToCartHandler handles liked to cart command
type LikedToCartHandler struct {
	likes *likes.List
	add   *AddToCartHandler
}

// NewLikedToCartHandler creates a new liked to cart handler
func NewLikedToCartHandler(list *likes.List, add *AddToCartHandler) *LikedToCartHandler {
	return &LikedToCartHandler{likes: list, add: add}
}

// Handle executes the liked to cart command. The item stays liked.
func (h *LikedToCartHandler) Handle(ctx context.Context, cmd LikedToCartCommand) ([]cart.Line, error) {
	for _, item := range h.likes.Items() {
		if item.ID == cmd.ItemID {
			return h.add.Handle(ctx, AddToCartCommand{Item: item, Quantity: 1})
		}
	}
	return nil, fmt.Errorf("item %s is not liked", cmd.ItemID)
}
