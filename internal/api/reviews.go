package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tair/storefront/internal/domain"
)

// ReviewsPage is one page of reviews on an item
type ReviewsPage struct {
	domain.CoreOutput
	domain.Pagination
	Reviews   []domain.Review `json:"reviews"`
	AvgRating float64         `json:"avgRating,omitempty"`
}

// ReviewOutput wraps a created review
type ReviewOutput struct {
	domain.CoreOutput
	Review *domain.Review `json:"review"`
}

// CreateReview posts a review on an item
func (c *Client) CreateReview(ctx context.Context, in domain.CreateReviewInput) (*domain.Review, error) {
	var out ReviewOutput
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/reviews/items/" + url.PathEscape(in.ItemID),
		body:     in,
		auth:     true,
		resource: "reviews",
		evict:    []string{"reviews:list:" + in.ItemID + ":", "items:detail:" + in.ItemID + ":"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Review, nil
}

// ItemReviews returns one page of reviews on itemID
func (c *Client) ItemReviews(ctx context.Context, itemID string, page int) (*ReviewsPage, error) {
	var out ReviewsPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/reviews/item/" + url.PathEscape(itemID),
		query:    pageQuery(page),
		auth:     true,
		resource: "reviews",
		cacheKey: "reviews:list:" + itemID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
