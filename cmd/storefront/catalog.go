package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/storefront/usecase/command"
	"github.com/tair/storefront/internal/storefront/usecase/query"
)

func registerCatalogCommands(r *CommandRegistry, c *cli) {
	r.Register(&Command{
		Name:        "categories",
		Description: "List item categories",
		Usage:       "storefront categories",
		Run: func(args []string) error {
			sf, err := c.storefront()
			if err != nil {
				return err
			}
			categories, err := sf.Queries.Categories.Handle(c.ctx)
			if err != nil {
				return err
			}
			t := NewTableWriter("ID", "Title")
			for _, cat := range categories {
				t.AddRow(cat.ID, cat.Title)
			}
			t.Print(c.out)
			return nil
		},
	})

	items := &Command{
		Name:        "items",
		Description: "Browse items: search, one category, or your own as a seller",
		Usage:       "storefront items [--query <text>] [--category <id>] [--mine] [--sort newest|price-desc|price-asc] [--pages <n>]",
		Examples: []string{
			"storefront items",
			"storefront items --query mug --sort price-asc",
			"storefront items --category <category-id> --pages 2",
			"storefront items --mine",
		},
	}
	items.Run = func(args []string) error {
		fs := items.NewFlagSet()
		text := fs.String("query", "", "Search text")
		category := fs.String("category", "", "Category id")
		mine := fs.Bool("mine", false, "List the items you sell")
		sortName := fs.String("sort", "newest", "Sort order: newest, price-desc or price-asc")
		pages := fs.Int("pages", 1, "Number of pages to load")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sort, err := parseSort(*sortName)
		if err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}

		var feed *query.ItemFeed
		switch {
		case *mine:
			feed, err = sf.Queries.ProviderItems.Handle(sort)
		case *category != "":
			feed, err = sf.Queries.CategoryItems.Handle(query.CategoryItemsQuery{CategoryID: *category, Sort: sort})
		default:
			feed = sf.Queries.SearchItems.Handle(query.SearchItemsQuery{Query: *text, Sort: sort})
		}
		if err != nil {
			return err
		}
		if err := feed.FetchPages(c.ctx, *pages); err != nil {
			return err
		}

		list := feed.Items()
		t := NewTableWriter("ID", "Name", "Category", "Price", "Stock", "Rating")
		for _, it := range list {
			t.AddRow(it.ID, it.Name, itemCategory(it), price(it.SalePrice), strconv.Itoa(it.Stock), rating(it.AvgRating))
		}
		t.Print(c.out)
		c.printf("%d of %d items\n", len(list), feed.TotalResults())
		if feed.HasNextPage() {
			c.printf("More available: --pages %d\n", feed.PageCount()+1)
		}
		return nil
	}
	r.Register(items)

	r.Register(&Command{
		Name:        "item",
		Description: "Show one item",
		Usage:       "storefront item <item-id>",
		Run: func(args []string) error {
			if err := needArgs(args, 1, "storefront item <item-id>"); err != nil {
				return err
			}
			sf, err := c.storefront()
			if err != nil {
				return err
			}
			it, err := sf.Queries.GetItem.Handle(c.ctx, args[0])
			if err != nil {
				return err
			}
			liked := "no"
			if sf.State.Auth().Get().Authenticated() {
				if err := sf.Likes.Load(c.ctx); err != nil {
					return err
				}
				if sf.Likes.Contains(it.ID) {
					liked = "yes"
				}
			}

			t := NewTableWriter("Field", "Value")
			t.AddRow("ID", it.ID)
			t.AddRow("Name", it.Name)
			t.AddRow("Category", itemCategory(*it))
			t.AddRow("Price", price(it.SalePrice))
			t.AddRow("Stock", strconv.Itoa(it.Stock))
			t.AddRow("Rating", rating(it.AvgRating))
			if it.Provider != nil {
				t.AddRow("Seller", it.Provider.Name)
			}
			t.AddRow("Liked", liked)
			for _, info := range it.Infos {
				t.AddRow(info.Key, info.Value)
			}
			for _, img := range it.ProductImages {
				t.AddRow("Image", img)
			}
			t.Print(c.out)
			return nil
		},
	})

	product := &Command{
		Name:        "product",
		Description: "Manage the items you sell: add, edit or rm",
		Usage:       "storefront product add|edit <item-id>|rm <item-id> [--name] [--price] [--stock] [--category] [--info key=value] [--image file]",
		Examples: []string{
			"storefront product add --name \"Tea cup\" --price 9000 --stock 12 --category Living --image cup.jpg",
			"storefront product edit <item-id> --price 8500",
			"storefront product rm <item-id>",
		},
	}
	product.Run = func(args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("%w, usage: %s", errArgs, product.Usage)
		}
		action, rest := args[0], args[1:]

		var itemID string
		switch action {
		case "add":
		case "edit", "rm":
			if len(rest) < 1 || strings.HasPrefix(rest[0], "-") {
				return fmt.Errorf("%w, usage: storefront product %s <item-id>", errArgs, action)
			}
			itemID, rest = rest[0], rest[1:]
		default:
			return fmt.Errorf("unknown product action %q", action)
		}

		sf, err := c.storefront()
		if err != nil {
			return err
		}
		if action == "rm" {
			if err := sf.Commands.DeleteItem.Handle(c.ctx, command.DeleteItemCommand{ItemID: itemID}); err != nil {
				return err
			}
			c.printf("Item %s deleted\n", itemID)
			return nil
		}

		fs := product.NewFlagSet()
		name := fs.String("name", "", "Item name")
		priceText := fs.String("price", "", "Sale price")
		stock := fs.Int("stock", -1, "Units in stock")
		category := fs.String("category", "", "Category name, created when missing")
		var infos, images stringList
		fs.Var(&infos, "info", "Detail row as key=value, repeatable")
		fs.Var(&images, "image", "Image file to upload, repeatable")
		if err := fs.Parse(rest); err != nil {
			return err
		}

		in := domain.ItemInput{Name: *name, Stock: *stock, CategoryName: *category}
		if itemID != "" {
			current, err := sf.Queries.GetItem.Handle(c.ctx, itemID)
			if err != nil {
				return err
			}
			in = mergeItemInput(in, *current)
		}
		if *priceText != "" {
			p, err := decimal.NewFromString(*priceText)
			if err != nil {
				return fmt.Errorf("invalid price %q", *priceText)
			}
			in.Price = p
		}
		if in.Stock < 0 {
			in.Stock = 0
		}
		if len(infos) > 0 {
			in.Infos = nil
			for _, kv := range infos {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid info %q, want key=value", kv)
				}
				in.Infos = append(in.Infos, domain.InfoItem{Key: key, Value: value})
			}
		}

		files, closeFiles, err := openFiles(images)
		if err != nil {
			return err
		}
		defer closeFiles()

		it, err := sf.Commands.SaveItem.Handle(c.ctx, command.SaveItemCommand{ItemID: itemID, Input: in, Files: files})
		if err != nil {
			return err
		}
		c.printf("Item %s saved: %s at %s, %d in stock\n", it.ID, it.Name, price(it.SalePrice), it.Stock)
		return nil
	}
	r.Register(product)

	reviews := &Command{
		Name:        "reviews",
		Description: "Show the reviews of an item",
		Usage:       "storefront reviews <item-id> [--pages <n>]",
	}
	reviews.Run = func(args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("%w, usage: %s", errArgs, reviews.Usage)
		}
		fs := reviews.NewFlagSet()
		pages := fs.Int("pages", 1, "Number of pages to load")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		feed := sf.Queries.Reviews.Handle(args[0])
		if err := feed.FetchPages(c.ctx, *pages); err != nil {
			return err
		}
		t := NewTableWriter("Rating", "By", "Review", "Photos")
		for _, rv := range feed.Items() {
			by := ""
			if rv.Commenter != nil {
				by = rv.Commenter.Name
			}
			t.AddRow(strings.Repeat("*", rv.Rating), by, rv.Content, strconv.Itoa(len(rv.Images)))
		}
		t.Print(c.out)
		c.printf("%d reviews, average %s\n", feed.TotalResults(), rating(feed.AvgRating()))
		return nil
	}
	r.Register(reviews)

	review := &Command{
		Name:        "review",
		Description: "Rate an item",
		Usage:       "storefront review <item-id> --rating 1-5 --content <text> [--image file]",
		Examples:    []string{"storefront review <item-id> --rating 5 --content \"Great mug\" --image mug.jpg"},
	}
	review.Run = func(args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("%w, usage: %s", errArgs, review.Usage)
		}
		fs := review.NewFlagSet()
		stars := fs.Int("rating", 0, "Rating from 1 to 5")
		content := fs.String("content", "", "Review text")
		var images stringList
		fs.Var(&images, "image", "Photo to attach, repeatable")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		sf, err := c.storefront()
		if err != nil {
			return err
		}
		files, closeFiles, err := openFiles(images)
		if err != nil {
			return err
		}
		defer closeFiles()

		rv, err := sf.Commands.CreateReview.Handle(c.ctx, command.CreateReviewCommand{
			ItemID:  args[0],
			Content: *content,
			Rating:  *stars,
			Files:   files,
		})
		if err != nil {
			return err
		}
		c.printf("Review %s posted with %s\n", rv.ID, formatCount(len(rv.Images), "photo"))
		return nil
	}
	r.Register(review)
}

// mergeItemInput fills fields the user left out from the stored item
func mergeItemInput(in domain.ItemInput, current domain.Item) domain.ItemInput {
	if in.Name == "" {
		in.Name = current.Name
	}
	in.Price = current.SalePrice
	if in.Stock < 0 {
		in.Stock = current.Stock
	}
	if in.CategoryName == "" {
		in.CategoryName = itemCategory(current)
	}
	in.Images = current.ProductImages
	in.Infos = current.Infos
	return in
}
