package sandbox

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
)

// LikeList handles GET /likes
func (h *Handler) LikeList(w http.ResponseWriter, r *http.Request) {
	list := h.store.likeList(*currentUser(r))
	respondJSON(w, http.StatusOK, api.LikeListOutput{CoreOutput: domain.CoreOutput{OK: true}, LikeList: &list})
}

// Like handles PUT /likes/items/{id}/add
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	if err := h.store.like(currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w)
}

// Unlike handles PUT /likes/items/{id}/remove
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	if err := h.store.unlike(currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w)
}

// CreateReview handles POST /reviews/items/{id}
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	in.ItemID = mux.Vars(r)["id"]
	if err := validate(in); err != nil {
		respondError(w, r, err)
		return
	}

	review, err := h.store.createReview(*currentUser(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, api.ReviewOutput{CoreOutput: domain.CoreOutput{OK: true}, Review: &review})
}

// ItemReviews handles GET /reviews/item/{id}
func (h *Handler) ItemReviews(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	all, avg, err := h.store.itemReviews(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	reviews, pagination := paginate(all, page, h.pageSize)
	respondJSON(w, http.StatusOK, api.ReviewsPage{
		CoreOutput: domain.CoreOutput{OK: true},
		Pagination: pagination,
		Reviews:    reviews,
		AvgRating:  avg,
	})
}
