package command

import (
	"context"
	"fmt"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/validation"
	"github.com/tair/storefront/pkg/logger"
)

// CreateReviewCommand rates an item and optionally attaches photos
type CreateReviewCommand struct {
	ItemID  string
	Content string
	Rating  int
	Files   []api.UploadFile
}

// CreateReviewHandler handles create review command
type CreateReviewHandler struct {
	reviews ReviewAPI
}

// NewCreateReviewHandler creates a new create review handler
func NewCreateReviewHandler(reviews ReviewAPI) *CreateReviewHandler {
	return &CreateReviewHandler{reviews: reviews}
}

// Handle executes the create review command
func (h *CreateReviewHandler) Handle(ctx context.Context, cmd CreateReviewCommand) (*domain.Review, error) {
	in := domain.CreateReviewInput{ItemID: cmd.ItemID, Content: cmd.Content, Rating: cmd.Rating}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	review, err := h.reviews.CreateReview(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	if len(cmd.Files) == 0 || review == nil {
		return review, nil
	}

	images, err := h.reviews.UploadImages(ctx, api.UploadInput{
		ImagableID:   review.ID,
		ImagableType: "Review",
		Files:        cmd.Files,
	})
	if err != nil {
		// The review itself was stored
		return review, fmt.Errorf("review saved but photo upload failed: %w", err)
	}
	for _, img := range images {
		review.Images = append(review.Images, img.ImagePath)
	}
	logger.Info(ctx).Str("review_id", review.ID).Int("images", len(images)).Msg("Review created")
	return review, nil
}
