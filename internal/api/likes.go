package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tair/storefront/internal/domain"
)

// LikeListOutput is the body of GET /likes
type LikeListOutput struct {
	domain.CoreOutput
	LikeList *domain.LikeList `json:"likeList"`
}

// LikeList fetches the signed-in user's like list
func (c *Client) LikeList(ctx context.Context) (*domain.LikeList, error) {
	var out LikeListOutput
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/likes",
		auth:     true,
		resource: "likes",
		cacheKey: "likeLists",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.LikeList == nil {
		return &domain.LikeList{Items: []domain.Item{}}, nil
	}
	return out.LikeList, nil
}

// LikeItem adds an item to the like list
func (c *Client) LikeItem(ctx context.Context, itemID string) error {
	return c.likeAction(ctx, itemID, "add")
}

// UnlikeItem removes an item from the like list
func (c *Client) UnlikeItem(ctx context.Context, itemID string) error {
	return c.likeAction(ctx, itemID, "remove")
}

func (c *Client) likeAction(ctx context.Context, itemID, action string) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/likes/items/" + url.PathEscape(itemID) + "/" + action,
		auth:     true,
		resource: "likes",
		evict:    []string{"likeLists"},
	}, nil)
}
