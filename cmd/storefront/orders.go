package main

import (
	"fmt"
	"strconv"

	"github.com/tair/storefront/internal/app"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/refund"
	"github.com/tair/storefront/internal/storefront/usecase/command"
	"github.com/tair/storefront/internal/storefront/usecase/query"
)

func registerOrderCommands(r *CommandRegistry, c *cli) {
	orders := &Command{
		Name:        "orders",
		Description: "List your orders, or the order items you sell with --provider",
		Usage:       "storefront orders [--provider] [--pages <n>]",
	}
	orders.Run = func(args []string) error {
		fs := orders.NewFlagSet()
		provider := fs.Bool("provider", false, "List order items of your products")
		pages := fs.Int("pages", 1, "Number of pages to load")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}

		if *provider {
			feed, err := sf.Queries.Sales.Handle()
			if err != nil {
				return err
			}
			if err := feed.FetchPages(c.ctx, *pages); err != nil {
				return err
			}
			t := NewTableWriter("Order item", "Item", "Count", "Status", "Next")
			for _, oi := range feed.Items() {
				t.AddRow(oi.ID, itemName(oi.Item), strconv.Itoa(oi.Count), string(oi.Status), nextAction(oi.Status))
			}
			t.Print(c.out)
			c.printf("%d of %d order items\n", len(feed.Items()), feed.TotalResults())
			return nil
		}

		feed, err := sf.Queries.Orders.Handle()
		if err != nil {
			return err
		}
		if err := feed.FetchPages(c.ctx, *pages); err != nil {
			return err
		}
		t := NewTableWriter("Order", "Total", "Order item", "Item", "Count", "Status")
		for _, o := range feed.Items() {
			for i, oi := range o.OrderItems {
				orderID, total := "", ""
				if i == 0 {
					orderID, total = o.ID, price(o.Total)
				}
				t.AddRow(orderID, total, oi.ID, itemName(oi.Item), strconv.Itoa(oi.Count), string(oi.Status))
			}
		}
		t.Print(c.out)
		c.printf("%d of %d orders\n", len(feed.Items()), feed.TotalResults())
		return nil
	}
	r.Register(orders)

	r.Register(&Command{
		Name:        "order",
		Description: "Cancel an order item, or accept and advance one you sell",
		Usage:       "storefront order cancel|accept|advance <order-item-id>",
		Examples: []string{
			"storefront order cancel <order-item-id>",
			"storefront order accept <order-item-id>",
			"storefront order advance <order-item-id>",
		},
		Run: func(args []string) error {
			if err := needArgs(args, 2, "storefront order cancel|accept|advance <order-item-id>"); err != nil {
				return err
			}
			action, id := args[0], args[1]
			sf, err := c.storefront()
			if err != nil {
				return err
			}

			var updated *domain.OrderItem
			switch action {
			case "cancel":
				oi, err := findOwnOrderItem(c, sf, id)
				if err != nil {
					return err
				}
				updated, err = sf.Commands.CancelOrder.Handle(c.ctx, command.CancelOrderItemCommand{OrderItem: oi})
				if err != nil {
					return err
				}
			case "accept", "advance":
				oi, err := findSoldOrderItem(c, sf, id)
				if err != nil {
					return err
				}
				cmd := command.AdvanceOrderItemCommand{OrderItem: oi}
				if action == "accept" {
					cmd.Expect = domain.OrderReceived
				}
				updated, err = sf.Commands.AdvanceOrder.Handle(c.ctx, cmd)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown order action %q", action)
			}
			c.printf("Order item %s is now %s\n", updated.ID, updated.Status)
			return nil
		},
	})

	refundCmd := &Command{
		Name:        "refund",
		Description: "Request a refund or exchange for a delivered order item",
		Usage:       "storefront refund <order-item-id> --reason <code> --description <text> --place <n> [--count <n>] [--solution exchange|refund] [--note <text>] | refund --reasons",
		Examples: []string{
			"storefront refund --reasons",
			"storefront refund <order-item-id> --reason damaged --description \"Cracked handle\" --place 1 --solution refund",
		},
	}
	refundCmd.Run = func(args []string) error {
		var id string
		if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
			id, args = args[0], args[1:]
		}
		fs := refundCmd.NewFlagSet()
		listReasons := fs.Bool("reasons", false, "List reason codes and pickup places")
		count := fs.Int("count", 0, "Units to return, defaults to all units not yet refunded")
		reason := fs.String("reason", "", "Reason code")
		description := fs.String("description", "", "What went wrong")
		solution := fs.String("solution", "exchange", "exchange or refund")
		place := fs.Int("place", 0, "Pickup place number, see --reasons")
		note := fs.String("note", "", "Note for the courier")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *listReasons {
			printRefundChoices(c)
			return nil
		}
		if id == "" {
			return fmt.Errorf("%w, usage: %s", errArgs, refundCmd.Usage)
		}

		status, err := parseSolution(*solution)
		if err != nil {
			return err
		}
		if *place < 1 || *place > len(refund.RecallPlaces) {
			return fmt.Errorf("--place must be between 1 and %d, see --reasons", len(refund.RecallPlaces))
		}

		sf, err := c.storefront()
		if err != nil {
			return err
		}
		user, err := sf.Sessions.RequireUser()
		if err != nil {
			return err
		}
		oi, err := findOwnOrderItem(c, sf, id)
		if err != nil {
			return err
		}

		w, err := refund.New(sf.Client, oi, *user)
		if err != nil {
			return err
		}
		n := *count
		if n == 0 {
			n = w.Count()
		}
		if err := w.SelectItem(n); err != nil {
			return err
		}
		if err := w.SelectReason(*reason, *description); err != nil {
			return err
		}
		if err := w.SelectSolution(status, refund.RecallPlaces[*place-1], *note); err != nil {
			return err
		}
		if _, err := w.Submit(c.ctx); err != nil {
			return err
		}

		if amount, ok := w.RefundAmount(); ok {
			c.printf("Refund of %s requested for %s of %s\n", price(amount), formatCount(n, "unit"), itemName(oi.Item))
		} else {
			c.printf("Exchange requested for %s of %s\n", formatCount(n, "unit"), itemName(oi.Item))
		}
		return nil
	}
	r.Register(refundCmd)

	refunds := &Command{
		Name:        "refunds",
		Description: "List refunds you requested, or those against your products with --provider",
		Usage:       "storefront refunds [--provider] [--pages <n>]",
	}
	refunds.Run = func(args []string) error {
		fs := refunds.NewFlagSet()
		provider := fs.Bool("provider", false, "List refunds filed against your products")
		pages := fs.Int("pages", 1, "Number of pages to load")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		feed, err := sf.Queries.Refunds.Handle(query.RefundsQuery{AsProvider: *provider})
		if err != nil {
			return err
		}
		if err := feed.FetchPages(c.ctx, *pages); err != nil {
			return err
		}
		t := NewTableWriter("Refund", "Item", "Count", "Solution", "Reason", "Amount", "Pickup")
		for _, rf := range feed.Items() {
			var item *domain.Item
			if rf.OrderItem != nil {
				item = rf.OrderItem.Item
			}
			amount := "-"
			if rf.RefundPay != nil {
				amount = price(*rf.RefundPay)
			}
			t.AddRow(rf.ID, itemName(item), strconv.Itoa(rf.Count), string(rf.Status), rf.ProblemTitle, amount, rf.RecallTitle)
		}
		t.Print(c.out)
		c.printf("%d of %d refunds\n", len(feed.Items()), feed.TotalResults())
		return nil
	}
	r.Register(refunds)
}

func nextAction(s domain.OrderStatus) string {
	next, ok := s.Next()
	if !ok {
		return "-"
	}
	return string(next)
}

func parseSolution(s string) (domain.RefundStatus, error) {
	switch s {
	case "exchange", "":
		return domain.RefundExchanged, nil
	case "refund":
		return domain.RefundRefunded, nil
	}
	return "", fmt.Errorf("unknown solution %q (use exchange or refund)", s)
}

func printRefundChoices(c *cli) {
	t := NewTableWriter("Reason", "Group", "Title")
	for _, r := range refund.Reasons {
		t.AddRow(r.Code, string(r.Group), r.Title)
	}
	t.Print(c.out)

	p := NewTableWriter("Place", "Pickup")
	for i, place := range refund.RecallPlaces {
		p.AddRow(strconv.Itoa(i+1), string(place))
	}
	p.Print(c.out)
}

// findOwnOrderItem looks the item up among the signed-in consumer's orders
func findOwnOrderItem(c *cli, sf *app.Storefront, id string) (domain.OrderItem, error) {
	feed, err := sf.Queries.Orders.Handle()
	if err != nil {
		return domain.OrderItem{}, err
	}
	all, err := drain(c.ctx, feed)
	if err != nil {
		return domain.OrderItem{}, err
	}
	for _, o := range all {
		for _, oi := range o.OrderItems {
			if oi.ID == id {
				return oi, nil
			}
		}
	}
	return domain.OrderItem{}, fmt.Errorf("order item %s not found in your orders", id)
}

// findSoldOrderItem looks the item up among the signed-in provider's sales
func findSoldOrderItem(c *cli, sf *app.Storefront, id string) (domain.OrderItem, error) {
	feed, err := sf.Queries.Sales.Handle()
	if err != nil {
		return domain.OrderItem{}, err
	}
	all, err := drain(c.ctx, feed)
	if err != nil {
		return domain.OrderItem{}, err
	}
	for _, oi := range all {
		if oi.ID == id {
			return oi, nil
		}
	}
	return domain.OrderItem{}, fmt.Errorf("order item %s not found in your sales", id)
}
