package sandbox

import (
	"context"

	"github.com/tair/storefront/kafka"
)

// EventPublisher receives domain events raised by the sandbox
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event kafka.OrderPlacedEvent) error
	PublishRefundRequested(ctx context.Context, event kafka.RefundRequestedEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, kafka.OrderPlacedEvent) error         { return nil }
func (NopPublisher) PublishRefundRequested(context.Context, kafka.RefundRequestedEvent) error { return nil }
