package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/money"
)

// Category groups items on the home screen
type Category struct {
	Entity
	Title    string `json:"title"`
	CoverImg string `json:"coverImg,omitempty"`
}

// InfoItem is one key/value row of an item's detail table
type InfoItem struct {
	ID    int    `json:"id,omitempty"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Item is a product offered by a provider
type Item struct {
	Entity
	Name          string          `json:"name"`
	Provider      *User           `json:"provider,omitempty"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Stock         int             `json:"stock"`
	AvgRating     float64         `json:"avgRating,omitempty"`
	ProductImages []string        `json:"product_images,omitempty"`
	Category      *Category       `json:"category,omitempty"`
	Infos         []InfoItem      `json:"infos,omitempty"`
}

// MarshalJSON writes the price as a plain number
func (i Item) MarshalJSON() ([]byte, error) {
	type item Item
	return json.Marshal(struct {
		item
		SalePrice json.Number `json:"sale_price"`
	}{item(i), money.Number(i.SalePrice)})
}

// Thumbnail returns the first product image, if any
func (i Item) Thumbnail() string {
	if len(i.ProductImages) == 0 {
		return ""
	}
	return i.ProductImages[0]
}

// ItemInput is the body of POST /items and PUT /items/:id
type ItemInput struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Price        decimal.Decimal `json:"price" validate:"gt=0"`
	Stock        int             `json:"stock" validate:"gte=0"`
	CategoryName string          `json:"categoryName" validate:"required"`
	Images       []string        `json:"images"`
	Infos        []InfoItem      `json:"infos"`
}

// MarshalJSON writes the price as a plain number
func (in ItemInput) MarshalJSON() ([]byte, error) {
	type itemInput ItemInput
	return json.Marshal(struct {
		itemInput
		Price json.Number `json:"price"`
	}{itemInput(in), money.Number(in.Price)})
}

// Image is an uploaded file attached to an item, review or user
type Image struct {
	Entity
	ImagableType string `json:"imagable_type"`
	ImagableID   string `json:"imagable_id"`
	ImagePath    string `json:"image_path"`
}
