package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/money"
)

// OrderStatus represents the lifecycle of an order item
type OrderStatus string

const (
	OrderChecking   OrderStatus = "Checking"
	OrderReceived   OrderStatus = "Received"
	OrderDelivering OrderStatus = "Delivering"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCanceled   OrderStatus = "Canceled"
)

// MaxDeliverRequestLength bounds the free-text delivery note
const MaxDeliverRequestLength = 50

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderChecking, OrderReceived, OrderDelivering, OrderDelivered, OrderCanceled:
		return true
	}
	return false
}

// CanCancel reports whether a consumer may still cancel the item
func (s OrderStatus) CanCancel() bool {
	return s == OrderChecking
}

// CanRefund reports whether a refund may be requested
func (s OrderStatus) CanRefund() bool {
	return s == OrderDelivered
}

// Next returns the status a provider moves the item to.
// The second result is false when the item cannot be advanced.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderChecking:
		return OrderReceived, true
	case OrderReceived:
		return OrderDelivering, true
	case OrderDelivering:
		return OrderDelivered, true
	}
	return s, false
}

// CanTransition reports whether moving from s to next is allowed
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if next == OrderCanceled {
		return s.CanCancel()
	}
	want, ok := s.Next()
	return ok && want == next
}

// Order is a placed order with its lines
type Order struct {
	Entity
	Consumer       *User           `json:"consumer,omitempty"`
	OrderItems     []OrderItem     `json:"order_items"`
	Total          decimal.Decimal `json:"total"`
	Destination    string          `json:"destination"`
	DeliverRequest string          `json:"deliver_request,omitempty"`
	OrderedAt      string          `json:"ordered_at,omitempty"`
}

// MarshalJSON writes the total as a plain number
func (o Order) MarshalJSON() ([]byte, error) {
	type order Order
	return json.Marshal(struct {
		order
		Total json.Number `json:"total"`
	}{order(o), money.Number(o.Total)})
}

// OrderItem is one line of an order
type OrderItem struct {
	Entity
	OrderID  string      `json:"order_id,omitempty"`
	Item     *Item       `json:"item,omitempty"`
	Count    int         `json:"count"`
	Status   OrderStatus `json:"status"`
	Refunded int         `json:"refunded_count,omitempty"`
}

// Refundable is the number of units not yet covered by a refund or exchange
func (oi OrderItem) Refundable() int {
	if oi.Refunded >= oi.Count {
		return 0
	}
	return oi.Count - oi.Refunded
}

// CreateOrderItemInput is one requested line of POST /orders
type CreateOrderItemInput struct {
	ItemID string `json:"item_id" validate:"required"`
	Count  int    `json:"count" validate:"gte=1"`
}

// CreateOrderInput is the body of POST /orders
type CreateOrderInput struct {
	Destination      string                 `json:"destination" validate:"required"`
	DeliverRequest   string                 `json:"deliver_request" validate:"max=50"`
	CreateOrderItems []CreateOrderItemInput `json:"create_order_items" validate:"required,min=1,dive"`
}
