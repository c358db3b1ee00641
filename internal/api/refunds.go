package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tair/storefront/internal/domain"
)

// RefundsPage is one page of refunds
type RefundsPage struct {
	domain.CoreOutput
	domain.Pagination
	Refunds []domain.Refund `json:"refunds"`
}

// RequestRefund files a refund or exchange for a delivered line
func (c *Client) RequestRefund(ctx context.Context, in domain.RequestRefundInput) (*domain.OrderItem, error) {
	q := url.Values{}
	q.Set("status", string(in.Status))

	var out OrderItemOutput
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/refunds/order-item/" + url.PathEscape(in.OrderItemID) + "/refund",
		query:    q,
		body:     in,
		auth:     true,
		resource: "refunds",
		evict:    []string{"refunds:", "orders:"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.OrderItem, nil
}

// ConsumerRefunds returns one page of refunds requested by consumerID
func (c *Client) ConsumerRefunds(ctx context.Context, consumerID string, page int) (*RefundsPage, error) {
	q := pageQuery(page)
	q.Set("consumerId", consumerID)
	return c.refunds(ctx, "/refunds/consumer", "refunds:consumer", q)
}

// ProviderRefunds returns one page of refunds on providerID's items
func (c *Client) ProviderRefunds(ctx context.Context, providerID string, page int) (*RefundsPage, error) {
	q := pageQuery(page)
	q.Set("providerId", providerID)
	return c.refunds(ctx, "/refunds/provider", "refunds:provider", q)
}

func (c *Client) refunds(ctx context.Context, path, scope string, q url.Values) (*RefundsPage, error) {
	var out RefundsPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     path,
		query:    q,
		auth:     true,
		resource: "refunds",
		cacheKey: scope,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
