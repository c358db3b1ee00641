package domain

// Review is a rated comment on an item
type Review struct {
	Entity
	Commenter  *User    `json:"commenter,omitempty"`
	ItemID     string   `json:"item_id,omitempty"`
	ReviewedAt string   `json:"reviewedAt,omitempty"`
	Content    string   `json:"content"`
	Rating     int      `json:"rating"`
	Images     []string `json:"images,omitempty"`
}

// CreateReviewInput is the body of POST /reviews/items/:id
type CreateReviewInput struct {
	ItemID  string   `json:"-" validate:"required"`
	Content string   `json:"content" validate:"required,max=500"`
	Rating  int      `json:"rating" validate:"gte=1,lte=5"`
	Images  []string `json:"images"`
}
