package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tair/storefront/internal/domain"
)

// CreateOrderOutput is the body of POST /orders
type CreateOrderOutput struct {
	domain.CoreOutput
	OrderID string `json:"order_id"`
}

// OrdersPage is one page of a consumer's orders
type OrdersPage struct {
	domain.CoreOutput
	domain.Pagination
	Orders []domain.Order `json:"orders"`
}

// OrderItemsPage is one page of a provider's sold lines
type OrderItemsPage struct {
	domain.CoreOutput
	domain.Pagination
	OrderItems []domain.OrderItem `json:"order_items"`
}

// OrderItemOutput wraps a changed order line
type OrderItemOutput struct {
	domain.CoreOutput
	OrderItem *domain.OrderItem `json:"order_item"`
}

// CreateOrder places an order and returns its id
func (c *Client) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (string, error) {
	var out CreateOrderOutput
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/orders",
		body:     in,
		auth:     true,
		resource: "orders",
		evict:    []string{"orders:", "items:"},
	}, &out)
	return out.OrderID, err
}

// ConsumerOrders returns one page of orders placed by consumerID
func (c *Client) ConsumerOrders(ctx context.Context, consumerID string, page int) (*OrdersPage, error) {
	q := pageQuery(page)
	q.Set("consumerId", consumerID)

	var out OrdersPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/orders/consumer",
		query:    q,
		auth:     true,
		resource: "orders",
		cacheKey: "orders:consumer",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ProviderOrderItems returns one page of lines sold by providerID
func (c *Client) ProviderOrderItems(ctx context.Context, providerID string, page int) (*OrderItemsPage, error) {
	q := pageQuery(page)
	q.Set("providerId", providerID)

	var out OrderItemsPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/orders/provider",
		query:    q,
		auth:     true,
		resource: "orders",
		cacheKey: "orders:provider",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrderItem cancels a line that is still being checked
func (c *Client) CancelOrderItem(ctx context.Context, orderItemID string) (*domain.OrderItem, error) {
	var out OrderItemOutput
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/orders/order-item/" + url.PathEscape(orderItemID),
		auth:     true,
		resource: "orders",
		evict:    []string{"orders:"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.OrderItem, nil
}

// UpdateOrderItemStatus moves a line to status
func (c *Client) UpdateOrderItemStatus(ctx context.Context, orderItemID string, status domain.OrderStatus) (*domain.OrderItem, error) {
	q := url.Values{}
	q.Set("orderStatus", string(status))

	var out OrderItemOutput
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/orders/order-item/" + url.PathEscape(orderItemID) + "/update",
		query:    q,
		auth:     true,
		resource: "orders",
		evict:    []string{"orders:"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.OrderItem, nil
}
