package query

import (
	"context"
	"sync"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/paging"
)

// ConsumerOrdersHandler handles consumer orders query
type ConsumerOrdersHandler struct {
	orders OrderAPI
	users  CurrentUser
}

// NewConsumerOrdersHandler creates a new consumer orders handler
func NewConsumerOrdersHandler(orders OrderAPI, users CurrentUser) *ConsumerOrdersHandler {
	return &ConsumerOrdersHandler{orders: orders, users: users}
}

// Handle returns the signed-in consumer's orders, newest first
func (h *ConsumerOrdersHandler) Handle() (*paging.Pager[domain.Order], error) {
	user, err := h.users.RequireUser()
	if err != nil {
		return nil, err
	}
	return paging.New(func(ctx context.Context, page int) (paging.Page[domain.Order], error) {
		out, err := h.orders.ConsumerOrders(ctx, user.ID, page)
		if err != nil {
			return paging.Page[domain.Order]{}, err
		}
		return paging.Page[domain.Order]{Items: out.Orders, Pagination: out.Pagination}, nil
	}), nil
}

// ProviderOrderItemsHandler handles provider order items query
type ProviderOrderItemsHandler struct {
	orders OrderAPI
	users  CurrentUser
}

// NewProviderOrderItemsHandler creates a new provider order items handler
func NewProviderOrderItemsHandler(orders OrderAPI, users CurrentUser) *ProviderOrderItemsHandler {
	return &ProviderOrderItemsHandler{orders: orders, users: users}
}

// Handle returns the lines sold by the signed-in provider
func (h *ProviderOrderItemsHandler) Handle() (*paging.Pager[domain.OrderItem], error) {
	user, err := h.users.RequireUser()
	if err != nil {
		return nil, err
	}
	return paging.New(func(ctx context.Context, page int) (paging.Page[domain.OrderItem], error) {
		out, err := h.orders.ProviderOrderItems(ctx, user.ID, page)
		if err != nil {
			return paging.Page[domain.OrderItem]{}, err
		}
		return paging.Page[domain.OrderItem]{Items: out.OrderItems, Pagination: out.Pagination}, nil
	}), nil
}

// RefundsQuery picks the consumer or provider side
type RefundsQuery struct {
	AsProvider bool
}

// RefundsHandler handles refunds query
type RefundsHandler struct {
	orders OrderAPI
	users  CurrentUser
}

// NewRefundsHandler creates a new refunds handler
func NewRefundsHandler(orders OrderAPI, users CurrentUser) *RefundsHandler {
	return &RefundsHandler{orders: orders, users: users}
}

// Handle returns refunds requested by, or filed against, the signed-in user
func (h *RefundsHandler) Handle(q RefundsQuery) (*paging.Pager[domain.Refund], error) {
	user, err := h.users.RequireUser()
	if err != nil {
		return nil, err
	}
	list := h.orders.ConsumerRefunds
	if q.AsProvider {
		list = h.orders.ProviderRefunds
	}
	return paging.New(func(ctx context.Context, page int) (paging.Page[domain.Refund], error) {
		out, err := list(ctx, user.ID, page)
		if err != nil {
			return paging.Page[domain.Refund]{}, err
		}
		return paging.Page[domain.Refund]{Items: out.Refunds, Pagination: out.Pagination}, nil
	}), nil
}

// ItemReviews is a review feed plus the item's average rating
type ItemReviews struct {
	*paging.Pager[domain.Review]
	avg func() float64
}

// AvgRating is the average reported with the latest page
func (r *ItemReviews) AvgRating() float64 {
	return r.avg()
}

// ItemReviewsHandler handles item reviews query
type ItemReviewsHandler struct {
	reviews ReviewAPI
}

// NewItemReviewsHandler creates a new item reviews handler
func NewItemReviewsHandler(reviews ReviewAPI) *ItemReviewsHandler {
	return &ItemReviewsHandler{reviews: reviews}
}

// Handle returns the review feed of itemID
func (h *ItemReviewsHandler) Handle(itemID string) *ItemReviews {
	var (
		mu  sync.Mutex
		avg float64
	)
	pager := paging.New(func(ctx context.Context, page int) (paging.Page[domain.Review], error) {
		out, err := h.reviews.ItemReviews(ctx, itemID, page)
		if err != nil {
			return paging.Page[domain.Review]{}, err
		}
		mu.Lock()
		avg = out.AvgRating
		mu.Unlock()
		return paging.Page[domain.Review]{Items: out.Reviews, Pagination: out.Pagination}, nil
	})
	return &ItemReviews{
		Pager: pager,
		avg: func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return avg
		},
	}
}
