package command

import (
	"context"
	"fmt"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/pkg/logger"
)

// CancelOrderItemCommand cancels a line the consumer ordered
type CancelOrderItemCommand struct {
	OrderItem domain.OrderItem
}

// CancelOrderItemHandler handles cancel order item command
type CancelOrderItemHandler struct {
	orders OrderAPI
}

// NewCancelOrderItemHandler creates a new cancel order item handler
func NewCancelOrderItemHandler(orders OrderAPI) *CancelOrderItemHandler {
	return &CancelOrderItemHandler{orders: orders}
}

// Handle executes the cancel order item command. Only lines still being
// checked can be canceled.
func (h *CancelOrderItemHandler) Handle(ctx context.Context, cmd CancelOrderItemCommand) (*domain.OrderItem, error) {
	if !cmd.OrderItem.Status.CanCancel() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cmd.OrderItem.Status, domain.OrderCanceled)
	}
	updated, err := h.orders.CancelOrderItem(ctx, cmd.OrderItem.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order item: %w", err)
	}
	logger.Info(ctx).Str("order_item_id", cmd.OrderItem.ID).Msg("Order item canceled")
	return updated, nil
}

// AdvanceOrderItemCommand moves a sold line one step along
// Checking -> Received -> Delivering -> Delivered
type AdvanceOrderItemCommand struct {
	OrderItem domain.OrderItem
	// Expect, when set, must be the next status. Accepting an order is
	// advancing with Expect = Received.
	Expect domain.OrderStatus
}

// AdvanceOrderItemHandler handles advance order item command
type AdvanceOrderItemHandler struct {
	orders OrderAPI
	users  CurrentUser
}

// NewAdvanceOrderItemHandler creates a new advance order item handler
func NewAdvanceOrderItemHandler(orders OrderAPI, users CurrentUser) *AdvanceOrderItemHandler {
	return &AdvanceOrderItemHandler{orders: orders, users: users}
}

// Handle executes the advance order item command
func (h *AdvanceOrderItemHandler) Handle(ctx context.Context, cmd AdvanceOrderItemCommand) (*domain.OrderItem, error) {
	user, err := h.users.RequireUser()
	if err != nil {
		return nil, err
	}
	if !user.IsProvider() {
		return nil, ErrProviderOnly
	}

	next, ok := cmd.OrderItem.Status.Next()
	if !ok || (cmd.Expect != "" && cmd.Expect != next) {
		target := cmd.Expect
		if target == "" {
			target = next
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cmd.OrderItem.Status, target)
	}

	updated, err := h.orders.UpdateOrderItemStatus(ctx, cmd.OrderItem.ID, next)
	if err != nil {
		return nil, fmt.Errorf("failed to update order item: %w", err)
	}
	logger.Info(ctx).
		Str("order_item_id", cmd.OrderItem.ID).
		Str("status", string(next)).
		Msg("Order item advanced")
	return updated, nil
}
