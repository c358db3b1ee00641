package command

import (
	"context"
	"fmt"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/validation"
	"github.com/tair/storefront/pkg/logger"
)

// SaveItemCommand adds an item, or edits one when ItemID is set
type SaveItemCommand struct {
	ItemID string
	Input  domain.ItemInput
	Files  []api.UploadFile
}

// SaveItemHandler handles save item command
type SaveItemHandler struct {
	catalog CatalogAPI
	users   CurrentUser
}

// NewSaveItemHandler creates a new save item handler
func NewSaveItemHandler(catalog CatalogAPI, users CurrentUser) *SaveItemHandler {
	return &SaveItemHandler{catalog: catalog, users: users}
}

// Handle executes the save item command. Images are uploaded once the
// item exists, against its id.
func (h *SaveItemHandler) Handle(ctx context.Context, cmd SaveItemCommand) (*domain.Item, error) {
	if err := requireProvider(h.users); err != nil {
		return nil, err
	}
	if err := validation.Struct(cmd.Input); err != nil {
		return nil, err
	}

	var item *domain.Item
	if cmd.ItemID == "" {
		added, err := h.catalog.AddItem(ctx, cmd.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to add item: %w", err)
		}
		item = added
		logger.Info(ctx).Str("item_id", item.ID).Msg("Item added")
	} else {
		if err := h.catalog.EditItem(ctx, cmd.ItemID, cmd.Input); err != nil {
			return nil, fmt.Errorf("failed to edit item: %w", err)
		}
		item = &domain.Item{
			Entity:        domain.Entity{ID: cmd.ItemID},
			Name:          cmd.Input.Name,
			SalePrice:     cmd.Input.Price,
			Stock:         cmd.Input.Stock,
			ProductImages: cmd.Input.Images,
			Infos:         cmd.Input.Infos,
		}
		logger.Info(ctx).Str("item_id", cmd.ItemID).Msg("Item edited")
	}

	if len(cmd.Files) == 0 {
		return item, nil
	}
	images, err := h.catalog.UploadImages(ctx, api.UploadInput{
		ImagableID:   item.ID,
		ImagableType: "Item",
		Files:        cmd.Files,
	})
	if err != nil {
		return item, fmt.Errorf("item saved but image upload failed: %w", err)
	}
	for _, img := range images {
		item.ProductImages = append(item.ProductImages, img.ImagePath)
	}
	return item, nil
}

// DeleteItemCommand removes a provider's item
type DeleteItemCommand struct {
	ItemID string
}

// DeleteItemHandler handles delete item command
type DeleteItemHandler struct {
	catalog CatalogAPI
	users   CurrentUser
}

// NewDeleteItemHandler creates a new delete item handler
func NewDeleteItemHandler(catalog CatalogAPI, users CurrentUser) *DeleteItemHandler {
	return &DeleteItemHandler{catalog: catalog, users: users}
}

// Handle executes the delete item command
func (h *DeleteItemHandler) Handle(ctx context.Context, cmd DeleteItemCommand) error {
	if cmd.ItemID == "" {
		return fmt.Errorf("invalid item id")
	}
	if err := requireProvider(h.users); err != nil {
		return err
	}
	if err := h.catalog.DeleteItem(ctx, cmd.ItemID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func requireProvider(users CurrentUser) error {
	user, err := users.RequireUser()
	if err != nil {
		return err
	}
	if !user.IsProvider() {
		return ErrProviderOnly
	}
	return nil
}
