package sandbox

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/kafka"
	"github.com/tair/storefront/pkg/logger"
)

// CreateOrder handles POST /orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateOrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(in); err != nil {
		respondError(w, r, err)
		return
	}

	user := currentUser(r)
	order, err := h.store.createOrder(*user, in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Info(r.Context()).
		Str("order_id", order.ID).
		Str("consumer_id", user.ID).
		Int("lines", len(order.OrderItems)).
		Str("total", order.Total.String()).
		Msg("Order placed")

	if err := h.events.PublishOrderPlaced(r.Context(), kafka.OrderPlacedEvent{
		OrderID:    order.ID,
		ConsumerID: user.ID,
		ItemCount:  len(order.OrderItems),
		Total:      order.Total,
		Timestamp:  h.now(),
	}); err != nil {
		// the order stands even when nobody hears about it
		logger.Warn(r.Context()).Err(err).Str("order_id", order.ID).Msg("Failed to publish order event")
	}

	respondJSON(w, http.StatusCreated, api.CreateOrderOutput{CoreOutput: domain.CoreOutput{OK: true}, OrderID: order.ID})
}

// ConsumerOrders handles GET /orders/consumer
func (h *Handler) ConsumerOrders(w http.ResponseWriter, r *http.Request) {
	consumerID, err := ownID(r, "consumerId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	orders, pagination := paginate(h.store.consumerOrders(consumerID), page, h.pageSize)
	respondJSON(w, http.StatusOK, api.OrdersPage{
		CoreOutput: domain.CoreOutput{OK: true},
		Pagination: pagination,
		Orders:     orders,
	})
}

// ProviderOrderItems handles GET /orders/provider
func (h *Handler) ProviderOrderItems(w http.ResponseWriter, r *http.Request) {
	providerID, err := ownID(r, "providerId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, pagination := paginate(h.store.providerOrderItems(providerID), page, h.pageSize)
	respondJSON(w, http.StatusOK, api.OrderItemsPage{
		CoreOutput: domain.CoreOutput{OK: true},
		Pagination: pagination,
		OrderItems: items,
	})
}

// CancelOrderItem handles PUT /orders/order-item/{id}
func (h *Handler) CancelOrderItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.cancelOrderItem(currentUser(r).ID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, api.OrderItemOutput{CoreOutput: domain.CoreOutput{OK: true}, OrderItem: &item})
}

// UpdateOrderItem handles PUT /orders/order-item/{id}/update
func (h *Handler) UpdateOrderItem(w http.ResponseWriter, r *http.Request) {
	next := domain.OrderStatus(r.URL.Query().Get("orderStatus"))
	item, err := h.store.updateOrderItem(currentUser(r).ID, mux.Vars(r)["id"], next)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Info(r.Context()).
		Str("order_item_id", item.ID).
		Str("status", string(item.Status)).
		Msg("Order item advanced")
	respondJSON(w, http.StatusOK, api.OrderItemOutput{CoreOutput: domain.CoreOutput{OK: true}, OrderItem: &item})
}

// RequestRefund handles POST /refunds/order-item/{id}/refund
func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	var in domain.RequestRefundInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	in.OrderItemID = mux.Vars(r)["id"]
	in.Status = domain.RefundStatus(r.URL.Query().Get("status"))
	if !in.Status.Valid() {
		respondError(w, r, badRequest("status must be Exchanged or Refunded"))
		return
	}
	if in.ProblemTitle == "" || in.RecallPlace == "" || in.RecallDay == "" {
		respondError(w, r, badRequest("problemTitle, recallPlace and recallDay are required"))
		return
	}

	user := currentUser(r)
	item, refund, err := h.store.requestRefund(*user, in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.events.PublishRefundRequested(r.Context(), kafka.RefundRequestedEvent{
		RefundID:    refund.ID,
		OrderItemID: item.ID,
		ConsumerID:  user.ID,
		Status:      string(refund.Status),
		Count:       refund.Count,
		RefundPay:   refund.RefundPay,
		Timestamp:   h.now(),
	}); err != nil {
		logger.Warn(r.Context()).Err(err).Str("refund_id", refund.ID).Msg("Failed to publish refund event")
	}

	respondJSON(w, http.StatusOK, api.OrderItemOutput{CoreOutput: domain.CoreOutput{OK: true}, OrderItem: &item})
}

// ConsumerRefunds handles GET /refunds/consumer
func (h *Handler) ConsumerRefunds(w http.ResponseWriter, r *http.Request) {
	consumerID, err := ownID(r, "consumerId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondRefunds(w, r, func(rec *refundRecord) bool { return rec.consumerID == consumerID })
}

// ProviderRefunds handles GET /refunds/provider
func (h *Handler) ProviderRefunds(w http.ResponseWriter, r *http.Request) {
	providerID, err := ownID(r, "providerId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondRefunds(w, r, func(rec *refundRecord) bool { return rec.providerID == providerID })
}

func (h *Handler) respondRefunds(w http.ResponseWriter, r *http.Request, match func(*refundRecord) bool) {
	page, err := pageParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	refunds, pagination := paginate(h.store.listRefunds(match), page, h.pageSize)
	respondJSON(w, http.StatusOK, api.RefundsPage{
		CoreOutput: domain.CoreOutput{OK: true},
		Pagination: pagination,
		Refunds:    refunds,
	})
}

// ownID reads a user id query parameter that must name the caller
func ownID(r *http.Request, param string) (string, error) {
	user := currentUser(r)
	id := r.URL.Query().Get(param)
	if id == "" {
		return user.ID, nil
	}
	if id != user.ID {
		return "", forbidden(param + " does not match the signed-in user")
	}
	return id, nil
}
