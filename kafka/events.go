package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is published after an order is created
type OrderPlacedEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OrderID    string          `json:"order_id"`
	ConsumerID string          `json:"consumer_id"`
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
	Timestamp  time.Time       `json:"timestamp"`
}

// RefundRequestedEvent is published after a refund or exchange is filed
type RefundRequestedEvent struct {
	EventID     string           `json:"event_id"`
	EventType   string           `json:"event_type"`
	RefundID    string           `json:"refund_id"`
	OrderItemID string           `json:"order_item_id"`
	ConsumerID  string           `json:"consumer_id"`
	Status      string           `json:"status"`
	Count       int              `json:"count"`
	RefundPay   *decimal.Decimal `json:"refund_pay,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Event types
const (
	EventTypeOrderPlaced     = "order.placed"
	EventTypeRefundRequested = "refund.requested"
)

// Kafka topics
const (
	TopicOrders  = "storefront-orders"
	TopicRefunds = "storefront-refunds"
)

// Topics lists every topic the storefront publishes to
var Topics = []string{TopicOrders, TopicRefunds}

// Envelope is a received message before its payload is decoded
type Envelope struct {
	EventType string
	EventID   string
	Topic     string
	Partition int32
	Offset    int64
	Value     []byte
}

// Decode unmarshals the payload into the event type matching EventType
func (e Envelope) Decode() (interface{}, error) {
	switch e.EventType {
	case EventTypeOrderPlaced:
		var ev OrderPlacedEvent
		if err := json.Unmarshal(e.Value, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", e.EventType, err)
		}
		return ev, nil
	case EventTypeRefundRequested:
		var ev RefundRequestedEvent
		if err := json.Unmarshal(e.Value, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", e.EventType, err)
		}
		return ev, nil
	}
	return nil, fmt.Errorf("unknown event type %q", e.EventType)
}
