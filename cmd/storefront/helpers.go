package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/money"
	"github.com/tair/storefront/internal/paging"
)

// stringList is a repeatable string flag
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var sortNames = map[string]domain.SortState{
	"newest":     domain.SortNewest,
	"price-desc": domain.SortPriceDesc,
	"price-asc":  domain.SortPriceAsc,
}

func parseSort(name string) (domain.SortState, error) {
	if s, ok := sortNames[name]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown sort %q (use newest, price-desc or price-asc)", name)
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("quantity must be a positive number, got %q", s)
	}
	return n, nil
}

// drain fetches every remaining page
func drain[T any](ctx context.Context, p *paging.Pager[T]) ([]T, error) {
	for {
		fetched, err := p.FetchNext(ctx)
		if err != nil {
			return nil, err
		}
		if !fetched {
			return p.Items(), nil
		}
	}
}

// openFiles opens images for upload. The returned func closes them.
func openFiles(paths []string) ([]api.UploadFile, func(), error) {
	var (
		files  []api.UploadFile
		opened []*os.File
	)
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		opened = append(opened, f)
		files = append(files, api.UploadFile{Name: filepath.Base(path), Content: f})
	}
	return files, closeAll, nil
}

func price(d decimal.Decimal) string {
	return money.Format(d)
}

func rating(avg float64) string {
	if avg == 0 {
		return "-"
	}
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

func itemCategory(it domain.Item) string {
	if it.Category == nil {
		return ""
	}
	return it.Category.Title
}

func itemName(it *domain.Item) string {
	if it == nil {
		return "(removed item)"
	}
	return it.Name
}

var errArgs = errors.New("wrong number of arguments")

func needArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("%w, usage: %s", errArgs, usage)
	}
	return nil
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// formatValue renders one breaker's stats
func formatValue(v interface{}) string {
	stats, ok := v.(map[string]interface{})
	if !ok {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%v (%v/%v failures)", stats["state"], stats["failures"], stats["max_failures"])
}
