package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/money"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/internal/validation"
	"github.com/tair/storefront/pkg/logger"
)

// Summary is the price breakdown shown before ordering
type Summary struct {
	ItemsTotal  decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// Summarize prices lines plus the delivery fee
func Summarize(lines []cart.Line) Summary {
	items := cart.Total(lines)
	return Summary{
		ItemsTotal:  items,
		DeliveryFee: domain.DeliveryFee,
		Total:       money.Sum(items, domain.DeliveryFee),
	}
}

// CheckoutCommand orders the selected shopping list lines
type CheckoutCommand struct {
	ProductIDs     []string
	DeliverRequest string
}

// CheckoutResult is the outcome of a placed order
type CheckoutResult struct {
	OrderID string
	Lines   []cart.Line
	Summary Summary
}

// CheckoutHandler handles checkout command
type CheckoutHandler struct {
	cartWriter
	orders OrderAPI
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(orders OrderAPI, carts *cart.Store, users CurrentUser, cell *state.Cell[[]cart.Line]) *CheckoutHandler {
	return &CheckoutHandler{
		cartWriter: cartWriter{carts: carts, users: users, cell: cell},
		orders:     orders,
	}
}

// Handle executes the checkout command. The order goes to the user's
// address; ordered lines leave the shopping list only after the backend
// accepted the order.
func (h *CheckoutHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error) {
	if len(cmd.ProductIDs) == 0 {
		return nil, ErrNothingSelected
	}
	user, err := h.users.RequireUser()
	if err != nil {
		return nil, err
	}

	all, err := h.carts.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	selection := cart.NewSelection(cmd.ProductIDs...)
	lines := selection.Selected(all)
	if len(lines) != selection.Len() {
		return nil, fmt.Errorf("%w: selection contains unknown lines", cart.ErrNotInCart)
	}

	in := domain.CreateOrderInput{
		Destination:    user.Address1,
		DeliverRequest: cmd.DeliverRequest,
	}
	for _, l := range lines {
		in.CreateOrderItems = append(in.CreateOrderItems, domain.CreateOrderItemInput{ItemID: l.ID, Count: l.Quantity})
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	orderID, err := h.orders.CreateOrder(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	_, err = h.cell.TryUpdate(func([]cart.Line) ([]cart.Line, error) {
		return h.carts.RemoveMany(ctx, user.ID, cmd.ProductIDs)
	})
	if err != nil {
		// The order exists; only the local list is stale.
		logger.Error(ctx).Err(err).Str("order_id", orderID).Msg("Failed to drop ordered lines")
	}

	result := &CheckoutResult{OrderID: orderID, Lines: lines, Summary: Summarize(lines)}
	logger.Info(ctx).
		Str("order_id", orderID).
		Int("lines", len(lines)).
		Str("total", result.Summary.Total.String()).
		Msg("Order placed")
	return result, nil
}
