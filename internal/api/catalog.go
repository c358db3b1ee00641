package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/tair/storefront/internal/domain"
)

// CategoriesOutput is the body of GET /categories
type CategoriesOutput struct {
	domain.CoreOutput
	Categories []domain.Category `json:"categories"`
}

// ItemsPage is one page of an item feed
type ItemsPage struct {
	domain.CoreOutput
	domain.Pagination
	Items        []domain.Item `json:"items"`
	CategoryName string        `json:"categoryName,omitempty"`
}

// ItemOutput wraps a single item
type ItemOutput struct {
	domain.CoreOutput
	Item *domain.Item `json:"item"`
}

// UploadOutput lists stored images
type UploadOutput struct {
	domain.CoreOutput
	Images []domain.Image `json:"images"`
}

// SearchParams filter the home feed
type SearchParams struct {
	Query string
	Sort  domain.SortState
	Page  int
}

// CategoryParams filter a category feed
type CategoryParams struct {
	CategoryID string
	Sort       domain.SortState
	Page       int
}

func withSort(q url.Values, sort domain.SortState) url.Values {
	if sort == "" {
		sort = domain.SortNewest
	}
	q.Set("sort", string(sort))
	return q
}

// Categories lists every category
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out CategoriesOutput
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/categories",
		resource: "categories",
		cacheKey: "categories",
	}, &out)
	return out.Categories, err
}

// ItemsByCategory returns one page of a category feed
func (c *Client) ItemsByCategory(ctx context.Context, p CategoryParams) (*ItemsPage, error) {
	var out ItemsPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/categories/" + url.PathEscape(p.CategoryID),
		query:    withSort(pageQuery(p.Page), p.Sort),
		auth:     true,
		resource: "items",
		cacheKey: "items:list",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchItems returns one page of the search / home feed
func (c *Client) SearchItems(ctx context.Context, p SearchParams) (*ItemsPage, error) {
	q := withSort(pageQuery(p.Page), p.Sort)
	q.Set("query", p.Query)

	var out ItemsPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/items",
		query:    q,
		auth:     true,
		resource: "items",
		cacheKey: "items:list",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Item fetches one item
func (c *Client) Item(ctx context.Context, itemID string) (*domain.Item, error) {
	var out ItemOutput
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/items/" + url.PathEscape(itemID),
		auth:     true,
		resource: "items",
		cacheKey: "items:detail:" + itemID,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, &Failure{Status: http.StatusOK, Reason: "item missing from response"}
	}
	return out.Item, nil
}

// ProviderItems returns one page of the signed-in provider's items
func (c *Client) ProviderItems(ctx context.Context, sort domain.SortState, page int) (*ItemsPage, error) {
	var out ItemsPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/items/provider",
		query:    withSort(pageQuery(page), sort),
		auth:     true,
		resource: "items",
		cacheKey: "items:provider",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddItem creates an item owned by the signed-in provider
func (c *Client) AddItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	var out ItemOutput
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/items",
		body:     in,
		auth:     true,
		resource: "items",
		evict:    []string{"items:"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Item, nil
}

// EditItem replaces an item's fields
func (c *Client) EditItem(ctx context.Context, itemID string, in domain.ItemInput) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/items/" + url.PathEscape(itemID),
		body:     in,
		auth:     true,
		resource: "items",
		evict:    []string{"items:"},
	}, nil)
}

// DeleteItem removes an item
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/items/" + url.PathEscape(itemID),
		auth:     true,
		resource: "items",
		evict:    []string{"items:"},
	}, nil)
}

// UploadFile is one file of a multipart upload
type UploadFile struct {
	Name    string
	Content io.Reader
}

// UploadInput attaches files to an item or review
type UploadInput struct {
	ImagableID   string
	ImagableType string // Item or Review
	Files        []UploadFile
}

// UploadImages posts files as multipart form data
func (c *Client) UploadImages(ctx context.Context, in UploadInput) ([]domain.Image, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("imagable_id", in.ImagableID); err != nil {
		return nil, err
	}
	if err := w.WriteField("imagable_type", in.ImagableType); err != nil {
		return nil, err
	}
	for _, f := range in.Files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out UploadOutput
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/uploads",
		raw:      &buf,
		rawType:  w.FormDataContentType(),
		auth:     true,
		resource: "uploads",
		evict:    []string{"items:", "reviews:"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Images, nil
}
