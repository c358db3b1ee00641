package sandbox

import (
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/pkg/logger"
)

// maxUploadSize caps a multipart upload
const maxUploadSize = 32 << 20

// ListCategories handles GET /categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, api.CategoriesOutput{
		CoreOutput: domain.CoreOutput{OK: true},
		Categories: h.store.listCategories(),
	})
}

// CategoryItems handles GET /categories/{id}
func (h *Handler) CategoryItems(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	title, err := h.store.categoryTitle(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.respondItems(w, r, itemFilter{categoryID: id}, title)
}

// SearchItems handles GET /items
func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	h.respondItems(w, r, itemFilter{query: r.URL.Query().Get("query")}, "")
}

// ProviderItems handles GET /items/provider
func (h *Handler) ProviderItems(w http.ResponseWriter, r *http.Request) {
	h.respondItems(w, r, itemFilter{providerID: currentUser(r).ID}, "")
}

func (h *Handler) respondItems(w http.ResponseWriter, r *http.Request, filter itemFilter, categoryName string) {
	page, err := pageParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	order, err := sortParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, pagination := paginate(h.store.listItems(filter, order), page, h.pageSize)
	respondJSON(w, http.StatusOK, api.ItemsPage{
		CoreOutput:   domain.CoreOutput{OK: true},
		Pagination:   pagination,
		Items:        items,
		CategoryName: categoryName,
	})
}

// GetItem handles GET /items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.getItem(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, api.ItemOutput{CoreOutput: domain.CoreOutput{OK: true}, Item: &item})
}

// AddItem handles POST /items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in domain.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(in); err != nil {
		respondError(w, r, err)
		return
	}

	item := h.store.addItem(*currentUser(r), in)
	logger.Info(r.Context()).
		Str("item_id", item.ID).
		Str("provider_id", item.Provider.ID).
		Msg("Item created")
	respondJSON(w, http.StatusCreated, api.ItemOutput{CoreOutput: domain.CoreOutput{OK: true}, Item: &item})
}

// EditItem handles PUT /items/{id}
func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	var in domain.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(in); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.store.editItem(currentUser(r).ID, mux.Vars(r)["id"], in); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w)
}

// DeleteItem handles DELETE /items/{id}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.deleteItem(currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w)
}

// Upload handles POST /uploads. Files are not kept; each one is recorded
// under a unique path attached to its item or review.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, r, badRequest("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	imagableType := r.FormValue("imagable_type")
	imagableID := r.FormValue("imagable_id")
	files := r.MultipartForm.File["files"]
	if imagableID == "" {
		respondError(w, r, badRequest("imagable_id is required"))
		return
	}
	if len(files) == 0 {
		respondError(w, r, badRequest("no files uploaded"))
		return
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, "/uploads/"+uuid.NewString()+"-"+path.Base(f.Filename))
	}

	images, err := h.store.attachImages(*currentUser(r), imagableType, imagableID, paths)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, api.UploadOutput{CoreOutput: domain.CoreOutput{OK: true}, Images: images})
}
