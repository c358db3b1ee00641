package command

import (
	"context"
	"errors"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
)

var (
	ErrInvalidTransition = errors.New("order item cannot move to that status")
	ErrProviderOnly      = errors.New("only providers can do this")
	ErrNothingSelected   = errors.New("no shopping list lines selected")
)

// CurrentUser resolves the signed-in user
type CurrentUser interface {
	RequireUser() (*domain.User, error)
}

// OrderAPI is the order side of the backend
type OrderAPI interface {
	CreateOrder(ctx context.Context, in domain.CreateOrderInput) (string, error)
	CancelOrderItem(ctx context.Context, orderItemID string) (*domain.OrderItem, error)
	UpdateOrderItemStatus(ctx context.Context, orderItemID string, status domain.OrderStatus) (*domain.OrderItem, error)
}

// Uploader stores image files for items and reviews
type Uploader interface {
	UploadImages(ctx context.Context, in api.UploadInput) ([]domain.Image, error)
}

// CatalogAPI is the provider side of the item catalog
type CatalogAPI interface {
	Uploader
	AddItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error)
	EditItem(ctx context.Context, itemID string, in domain.ItemInput) error
	DeleteItem(ctx context.Context, itemID string) error
}

// ReviewAPI posts reviews
type ReviewAPI interface {
	Uploader
	CreateReview(ctx context.Context, in domain.CreateReviewInput) (*domain.Review, error)
}

// ProfileAPI edits the signed-in account
type ProfileAPI interface {
	EditProfile(ctx context.Context, in domain.EditProfileInput) error
	ChangePassword(ctx context.Context, in domain.ChangePasswordInput) error
}
