package query

import (
	"context"
	"fmt"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/paging"
)

func itemsPage(p *api.ItemsPage) paging.Page[domain.Item] {
	return paging.Page[domain.Item]{Items: p.Items, Pagination: p.Pagination}
}

// ListCategoriesHandler handles list categories query
type ListCategoriesHandler struct {
	catalog CatalogAPI
}

// NewListCategoriesHandler creates a new list categories handler
func NewListCategoriesHandler(catalog CatalogAPI) *ListCategoriesHandler {
	return &ListCategoriesHandler{catalog: catalog}
}

// Handle executes the list categories query
func (h *ListCategoriesHandler) Handle(ctx context.Context) ([]domain.Category, error) {
	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetItemHandler handles get item query
type GetItemHandler struct {
	catalog CatalogAPI
}

// NewGetItemHandler creates a new get item handler
func NewGetItemHandler(catalog CatalogAPI) *GetItemHandler {
	return &GetItemHandler{catalog: catalog}
}

// Handle executes the get item query
func (h *GetItemHandler) Handle(ctx context.Context, itemID string) (*domain.Item, error) {
	if itemID == "" {
		return nil, fmt.Errorf("invalid item id")
	}
	item, err := h.catalog.Item(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// SearchItemsQuery is the home feed filter. An empty query lists everything.
type SearchItemsQuery struct {
	Query string
	Sort  domain.SortState
}

// SearchItemsHandler handles search items query
type SearchItemsHandler struct {
	catalog CatalogAPI
	cache   Invalidator
}

// NewSearchItemsHandler creates a new search items handler
func NewSearchItemsHandler(catalog CatalogAPI, cache Invalidator) *SearchItemsHandler {
	return &SearchItemsHandler{catalog: catalog, cache: cache}
}

// Handle returns an unstarted feed
func (h *SearchItemsHandler) Handle(q SearchItemsQuery) *ItemFeed {
	return newItemFeed(h.cache, "items:list", q.Sort, func(ctx context.Context, sort domain.SortState, page int) (paging.Page[domain.Item], error) {
		out, err := h.catalog.SearchItems(ctx, api.SearchParams{Query: q.Query, Sort: sort, Page: page})
		if err != nil {
			return paging.Page[domain.Item]{}, err
		}
		return itemsPage(out), nil
	})
}

// CategoryItemsQuery is the category feed filter
type CategoryItemsQuery struct {
	CategoryID string
	Sort       domain.SortState
}

// CategoryItemsHandler handles category items query
type CategoryItemsHandler struct {
	catalog CatalogAPI
	cache   Invalidator
}

// NewCategoryItemsHandler creates a new category items handler
func NewCategoryItemsHandler(catalog CatalogAPI, cache Invalidator) *CategoryItemsHandler {
	return &CategoryItemsHandler{catalog: catalog, cache: cache}
}

// Handle returns an unstarted feed
func (h *CategoryItemsHandler) Handle(q CategoryItemsQuery) (*ItemFeed, error) {
	if q.CategoryID == "" {
		return nil, fmt.Errorf("invalid category id")
	}
	return newItemFeed(h.cache, "items:list", q.Sort, func(ctx context.Context, sort domain.SortState, page int) (paging.Page[domain.Item], error) {
		out, err := h.catalog.ItemsByCategory(ctx, api.CategoryParams{CategoryID: q.CategoryID, Sort: sort, Page: page})
		if err != nil {
			return paging.Page[domain.Item]{}, err
		}
		return itemsPage(out), nil
	}), nil
}

// ProviderItemsHandler handles provider items query
type ProviderItemsHandler struct {
	catalog CatalogAPI
	users   CurrentUser
	cache   Invalidator
}

// NewProviderItemsHandler creates a new provider items handler
func NewProviderItemsHandler(catalog CatalogAPI, users CurrentUser, cache Invalidator) *ProviderItemsHandler {
	return &ProviderItemsHandler{catalog: catalog, users: users, cache: cache}
}

// Handle returns the signed-in provider's own items
func (h *ProviderItemsHandler) Handle(sort domain.SortState) (*ItemFeed, error) {
	if _, err := h.users.RequireUser(); err != nil {
		return nil, err
	}
	return newItemFeed(h.cache, "items:provider", sort, func(ctx context.Context, sort domain.SortState, page int) (paging.Page[domain.Item], error) {
		out, err := h.catalog.ProviderItems(ctx, sort, page)
		if err != nil {
			return paging.Page[domain.Item]{}, err
		}
		return itemsPage(out), nil
	}), nil
}
