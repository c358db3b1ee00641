package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/tair/storefront/kafka"
	"github.com/tair/storefront/pkg/logger"
)

func registerEventCommands(r *CommandRegistry, c *cli) {
	events := &Command{
		Name:        "events",
		Description: "Tail order and refund events from Kafka until interrupted",
		Usage:       "storefront events [--group <id>]",
		Examples:    []string{"STOREFRONT_KAFKA_BROKERS=localhost:9092 storefront events"},
	}
	events.Run = func(args []string) error {
		fs := events.NewFlagSet()
		group := fs.String("group", "", "Consumer group, defaults to kafka.group_id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		cfg, err := c.config()
		if err != nil {
			return err
		}
		if !cfg.Kafka.Enabled() {
			return fmt.Errorf("no Kafka brokers configured, set kafka.brokers or STOREFRONT_KAFKA_BROKERS")
		}
		groupID := orDefault(*group, cfg.Kafka.GroupID)

		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, groupID, kafka.Topics)
		if err != nil {
			return err
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Logger.Warn().Err(err).Msg("Failed to close kafka consumer")
			}
		}()

		// Handlers run on sarama's claim goroutines.
		var mu sync.Mutex
		show := func(ctx context.Context, env kafka.Envelope) error {
			ev, err := env.Decode()
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			c.printf("%s\n", describeEvent(ev))
			return nil
		}
		consumer.RegisterHandler(kafka.EventTypeOrderPlaced, show)
		consumer.RegisterHandler(kafka.EventTypeRefundRequested, show)

		if err := consumer.Start(c.ctx); err != nil {
			return err
		}
		c.printf("Listening on %v as %s, Ctrl-C to stop\n", kafka.Topics, groupID)
		<-c.ctx.Done()
		return nil
	}
	r.Register(events)
}

func describeEvent(ev interface{}) string {
	switch e := ev.(type) {
	case kafka.OrderPlacedEvent:
		return fmt.Sprintf("%s order placed  order=%s consumer=%s lines=%d total=%s",
			e.Timestamp.Format("15:04:05"), e.OrderID, e.ConsumerID, e.ItemCount, price(e.Total))
	case kafka.RefundRequestedEvent:
		amount := "-"
		if e.RefundPay != nil {
			amount = price(*e.RefundPay)
		}
		return fmt.Sprintf("%s %s requested  refund=%s order_item=%s count=%d amount=%s",
			e.Timestamp.Format("15:04:05"), e.Status, e.RefundID, e.OrderItemID, e.Count, amount)
	}
	return fmt.Sprintf("%v", ev)
}
