package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/storefront/pkg/logger"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
	now      func() time.Time
}

// NewProducerConfig returns the producer settings used by NewPublisher
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000
	return config
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return NewPublisherWithProducer(producer), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer) *Publisher {
	return &Publisher{producer: producer, now: time.Now}
}

// PublishOrderPlaced publishes an order placed event with tracing
func (p *Publisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.EventType = EventTypeOrderPlaced
	event.Timestamp = p.now()

	return p.publish(ctx, outgoing{
		topic:     TopicOrders,
		eventType: EventTypeOrderPlaced,
		eventID:   event.EventID,
		key:       "order_" + event.OrderID,
		payload:   event,
		attrs: []attribute.KeyValue{
			attribute.String("order.id", event.OrderID),
			attribute.Int("order.item_count", event.ItemCount),
		},
	})
}

// PublishRefundRequested publishes a refund requested event with tracing
func (p *Publisher) PublishRefundRequested(ctx context.Context, event RefundRequestedEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.EventType = EventTypeRefundRequested
	event.Timestamp = p.now()

	return p.publish(ctx, outgoing{
		topic:     TopicRefunds,
		eventType: EventTypeRefundRequested,
		eventID:   event.EventID,
		key:       "order_item_" + event.OrderItemID,
		payload:   event,
		attrs: []attribute.KeyValue{
			attribute.String("refund.id", event.RefundID),
			attribute.String("refund.status", event.Status),
			attribute.Int("refund.count", event.Count),
		},
	})
}

type outgoing struct {
	topic     string
	eventType string
	eventID   string
	key       string
	payload   interface{}
	attrs     []attribute.KeyValue
}

func (p *Publisher) publish(ctx context.Context, out outgoing) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+out.eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", out.topic),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", out.eventType),
			attribute.String("event.id", out.eventID),
		),
		trace.WithAttributes(out.attrs...),
	)
	defer span.End()

	eventBytes, err := json.Marshal(out.payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(out.eventType)},
		{Key: []byte("event_id"), Value: []byte(out.eventID)},
	}
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   out.topic,
		Key:     sarama.StringEncoder(out.key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Error(ctx).
			Err(err).
			Str("topic", out.topic).
			Str("event_id", out.eventID).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Info(ctx).
		Str("event_id", out.eventID).
		Str("event_type", out.eventType).
		Str("topic", out.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
