package main

import (
	"fmt"
	"strconv"

	"github.com/tair/storefront/internal/app"
	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/storefront/usecase/command"
)

func registerCartCommands(r *CommandRegistry, c *cli) {
	cartCmd := &Command{
		Name:        "cart",
		Description: "Manage the shopping list: list, add, qty, rm, total or reset",
		Usage:       "storefront cart list | add <item-id> [quantity] | qty <item-id> <quantity> | rm <item-id>... | total [item-id...] | reset",
		Examples: []string{
			"storefront cart add <item-id> 2",
			"storefront cart qty <item-id> 3",
			"storefront cart total <item-id> <item-id>",
		},
	}
	cartCmd.Run = func(args []string) error {
		action := "list"
		if len(args) > 0 {
			action, args = args[0], args[1:]
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}

		var lines []cart.Line
		switch action {
		case "list":
			lines, err = sf.Commands.LoadCart.Handle(c.ctx)
		case "add":
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("%w, usage: storefront cart add <item-id> [quantity]", errArgs)
			}
			qty := 1
			if len(args) == 2 {
				if qty, err = parseQuantity(args[1]); err != nil {
					return err
				}
			}
			it, gerr := sf.Queries.GetItem.Handle(c.ctx, args[0])
			if gerr != nil {
				return gerr
			}
			lines, err = sf.Commands.AddToCart.Handle(c.ctx, command.AddToCartCommand{Item: *it, Quantity: qty})
		case "qty":
			if err := needArgs(args, 2, "storefront cart qty <item-id> <quantity>"); err != nil {
				return err
			}
			qty, perr := parseQuantity(args[1])
			if perr != nil {
				return perr
			}
			lines, err = sf.Commands.SetQuantity.Handle(c.ctx, command.SetQuantityCommand{ProductID: args[0], Quantity: qty})
		case "rm":
			if len(args) == 0 {
				return fmt.Errorf("%w, usage: storefront cart rm <item-id>...", errArgs)
			}
			lines, err = sf.Commands.RemoveFromCart.Handle(c.ctx, command.RemoveFromCartCommand{ProductIDs: args})
		case "total":
			all, lerr := sf.Commands.LoadCart.Handle(c.ctx)
			if lerr != nil {
				return lerr
			}
			selected := all
			if len(args) > 0 {
				selected = cart.NewSelection(args...).Selected(all)
			}
			printSummary(c, command.Summarize(selected), len(selected))
			return nil
		case "reset":
			if err := sf.Commands.ResetCart.Handle(c.ctx); err != nil {
				return err
			}
			c.printf("Shopping list emptied\n")
			return nil
		default:
			return fmt.Errorf("unknown cart action %q", action)
		}
		if err != nil {
			return err
		}
		printCart(c, lines)
		return nil
	}
	r.Register(cartCmd)

	checkout := &Command{
		Name:        "checkout",
		Description: "Order shopping list lines; all of them when none are named",
		Usage:       "storefront checkout [--request <note>] [item-id...]",
		Examples: []string{
			"storefront checkout",
			"storefront checkout --request \"Leave at the door\" <item-id>",
		},
	}
	checkout.Run = func(args []string) error {
		fs := checkout.NewFlagSet()
		request := fs.String("request", "", "Delivery note, at most 50 characters")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		ids := fs.Args()
		if len(ids) == 0 {
			lines, err := sf.Commands.LoadCart.Handle(c.ctx)
			if err != nil {
				return err
			}
			for _, l := range lines {
				ids = append(ids, l.ID)
			}
		}
		result, err := sf.Commands.Checkout.Handle(c.ctx, command.CheckoutCommand{ProductIDs: ids, DeliverRequest: *request})
		if err != nil {
			return err
		}
		c.printf("Order %s placed\n", result.OrderID)
		printSummary(c, result.Summary, len(result.Lines))
		return nil
	}
	r.Register(checkout)

	likesCmd := &Command{
		Name:        "likes",
		Description: "Manage liked items: list, add, rm or to-cart",
		Usage:       "storefront likes list | add <item-id> | rm <item-id> | to-cart <item-id>",
	}
	likesCmd.Run = func(args []string) error {
		action := "list"
		if len(args) > 0 {
			action, args = args[0], args[1:]
		}
		if action != "list" {
			if err := needArgs(args, 1, "storefront likes "+action+" <item-id>"); err != nil {
				return err
			}
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		if _, err := sf.Sessions.RequireUser(); err != nil {
			return err
		}
		if err := sf.Likes.Load(c.ctx); err != nil {
			return err
		}

		switch action {
		case "list":
		case "add":
			it, err := sf.Queries.GetItem.Handle(c.ctx, args[0])
			if err != nil {
				return err
			}
			if err := sf.Commands.LikeItem.Handle(c.ctx, command.LikeItemCommand{Item: *it, Liked: true}); err != nil {
				return err
			}
		case "rm":
			if !sf.Likes.Contains(args[0]) {
				return fmt.Errorf("item %s is not liked", args[0])
			}
			if err := unlike(c, sf, args[0]); err != nil {
				return err
			}
		case "to-cart":
			lines, err := sf.Commands.LikedToCart.Handle(c.ctx, command.LikedToCartCommand{ItemID: args[0]})
			if err != nil {
				return err
			}
			printCart(c, lines)
			return nil
		default:
			return fmt.Errorf("unknown likes action %q", action)
		}

		t := NewTableWriter("ID", "Name", "Price", "Stock")
		for _, it := range sf.Likes.Items() {
			t.AddRow(it.ID, it.Name, price(it.SalePrice), strconv.Itoa(it.Stock))
		}
		t.Print(c.out)
		return nil
	}
	r.Register(likesCmd)
}

func unlike(c *cli, sf *app.Storefront, itemID string) error {
	for _, it := range sf.Likes.Items() {
		if it.ID == itemID {
			return sf.Commands.LikeItem.Handle(c.ctx, command.LikeItemCommand{Item: it, Liked: false})
		}
	}
	return nil
}

func printCart(c *cli, lines []cart.Line) {
	if len(lines) == 0 {
		c.printf("Shopping list is empty\n")
		return
	}
	t := NewTableWriter("ID", "Name", "Price", "Qty", "Subtotal")
	for _, l := range lines {
		t.AddRow(l.ID, l.Name, price(l.Price), strconv.Itoa(l.Quantity), price(l.Subtotal()))
	}
	t.Print(c.out)
	printSummary(c, command.Summarize(lines), len(lines))
}

func printSummary(c *cli, s command.Summary, n int) {
	c.printf("%s: items %s + delivery %s = %s\n", formatCount(n, "line"), price(s.ItemsTotal), price(s.DeliveryFee), price(s.Total))
}
