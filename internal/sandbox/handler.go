// Package sandbox is an in-memory storefront backend that speaks the same
// REST dialect as production. It backs local development and the
// integration tests of the api client.
package sandbox

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/pkg/logger"
)

// maxBodySize caps JSON request bodies
const maxBodySize = 1 << 20

// Options configures a Handler
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	PageSize  int
	Events    EventPublisher
	Now       func() time.Time
}

// Handler serves the storefront REST API
type Handler struct {
	store    *Store
	tokens   *tokenIssuer
	events   EventPublisher
	pageSize int
	now      func() time.Time
}

// NewHandler creates a handler over store
func NewHandler(store *Store, opts Options) *Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	events := opts.Events
	if events == nil {
		events = NopPublisher{}
	}

	store.now = now
	return &Handler{
		store:    store,
		tokens:   &tokenIssuer{secret: []byte(opts.JWTSecret), ttl: ttl, now: now},
		events:   events,
		pageSize: pageSize,
		now:      now,
	}
}

// RegisterRoutes registers the API routes on router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Users
	router.HandleFunc("/signup", h.SignUp).Methods("POST")
	router.HandleFunc("/login", h.Login).Methods("POST")
	router.HandleFunc("/token", h.authenticated(h.RefreshToken)).Methods("POST")
	router.HandleFunc("/logout", h.authenticated(h.Logout)).Methods("DELETE")
	router.HandleFunc("/edit-profile", h.authenticated(h.EditProfile)).Methods("POST")
	router.HandleFunc("/change-password", h.authenticated(h.ChangePassword)).Methods("POST")

	// Catalog
	router.HandleFunc("/categories", h.ListCategories).Methods("GET")
	router.HandleFunc("/categories/{id}", h.optionalUser(h.CategoryItems)).Methods("GET")
	router.HandleFunc("/items", h.optionalUser(h.SearchItems)).Methods("GET")
	router.HandleFunc("/items/provider", h.providerOnly(h.ProviderItems)).Methods("GET")
	router.HandleFunc("/items/{id}", h.optionalUser(h.GetItem)).Methods("GET")
	router.HandleFunc("/items", h.providerOnly(h.AddItem)).Methods("POST")
	router.HandleFunc("/items/{id}", h.providerOnly(h.EditItem)).Methods("PUT")
	router.HandleFunc("/items/{id}", h.providerOnly(h.DeleteItem)).Methods("DELETE")
	router.HandleFunc("/uploads", h.authenticated(h.Upload)).Methods("POST")

	// Orders
	router.HandleFunc("/orders", h.authenticated(h.CreateOrder)).Methods("POST")
	router.HandleFunc("/orders/consumer", h.authenticated(h.ConsumerOrders)).Methods("GET")
	router.HandleFunc("/orders/provider", h.providerOnly(h.ProviderOrderItems)).Methods("GET")
	router.HandleFunc("/orders/order-item/{id}", h.authenticated(h.CancelOrderItem)).Methods("PUT")
	router.HandleFunc("/orders/order-item/{id}/update", h.providerOnly(h.UpdateOrderItem)).Methods("PUT")

	// Refunds
	router.HandleFunc("/refunds/order-item/{id}/refund", h.authenticated(h.RequestRefund)).Methods("POST")
	router.HandleFunc("/refunds/consumer", h.authenticated(h.ConsumerRefunds)).Methods("GET")
	router.HandleFunc("/refunds/provider", h.providerOnly(h.ProviderRefunds)).Methods("GET")

	// Likes and reviews
	router.HandleFunc("/likes", h.authenticated(h.LikeList)).Methods("GET")
	router.HandleFunc("/likes/items/{id}/add", h.authenticated(h.Like)).Methods("PUT")
	router.HandleFunc("/likes/items/{id}/remove", h.authenticated(h.Unlike)).Methods("PUT")
	router.HandleFunc("/reviews/items/{id}", h.authenticated(h.CreateReview)).Methods("POST")
	router.HandleFunc("/reviews/item/{id}", h.optionalUser(h.ItemReviews)).Methods("GET")
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondOK(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, domain.CoreOutput{OK: true})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(r.Context()).
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		message = "internal server error"
	}
	respondJSON(w, status, domain.CoreOutput{OK: false, Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// pageParam reads ?page, defaulting to 1
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, badRequest("page must be a positive integer")
	}
	return page, nil
}

func sortParam(r *http.Request) (domain.SortState, error) {
	raw := domain.SortState(r.URL.Query().Get("sort"))
	if raw == "" {
		return domain.SortNewest, nil
	}
	if !raw.Valid() {
		return "", badRequest("unknown sort " + string(raw))
	}
	return raw, nil
}

// paginate cuts one page out of all
func paginate[T any](all []T, page, size int) ([]T, domain.Pagination) {
	total := len(all)
	pages := (total + size - 1) / size

	p := domain.Pagination{TotalPages: pages, TotalResults: total}
	if page < pages {
		p.HasNextPage = true
		p.NextPage = page + 1
	}

	if page > pages {
		return []T{}, p
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], p
}
