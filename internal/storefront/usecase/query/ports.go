package query

import (
	"context"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
)

// CatalogAPI reads the item catalog
type CatalogAPI interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	SearchItems(ctx context.Context, p api.SearchParams) (*api.ItemsPage, error)
	ItemsByCategory(ctx context.Context, p api.CategoryParams) (*api.ItemsPage, error)
	ProviderItems(ctx context.Context, sort domain.SortState, page int) (*api.ItemsPage, error)
	Item(ctx context.Context, itemID string) (*domain.Item, error)
}

// OrderAPI reads orders and refunds
type OrderAPI interface {
	ConsumerOrders(ctx context.Context, consumerID string, page int) (*api.OrdersPage, error)
	ProviderOrderItems(ctx context.Context, providerID string, page int) (*api.OrderItemsPage, error)
	ConsumerRefunds(ctx context.Context, consumerID string, page int) (*api.RefundsPage, error)
	ProviderRefunds(ctx context.Context, providerID string, page int) (*api.RefundsPage, error)
}

// ReviewAPI reads reviews
type ReviewAPI interface {
	ItemReviews(ctx context.Context, itemID string, page int) (*api.ReviewsPage, error)
}

// CurrentUser resolves the signed-in user
type CurrentUser interface {
	RequireUser() (*domain.User, error)
}

// Invalidator drops cached pages. querycache.Cache satisfies it.
type Invalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}
