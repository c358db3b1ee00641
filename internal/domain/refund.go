package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/money"
)

// RefundStatus is the solution a consumer asks for
type RefundStatus string

const (
	RefundExchanged RefundStatus = "Exchanged"
	RefundRefunded  RefundStatus = "Refunded"
)

// Valid reports whether s is a known solution
func (s RefundStatus) Valid() bool {
	return s == RefundExchanged || s == RefundRefunded
}

// Refund is a refund or exchange request on a delivered order item
type Refund struct {
	Entity
	OrderItem          *OrderItem       `json:"order_item,omitempty"`
	Count              int              `json:"count"`
	ProblemTitle       string           `json:"problem_title"`
	ProblemDescription string           `json:"problem_description"`
	Status             RefundStatus     `json:"status"`
	Refundee           *User            `json:"refundee,omitempty"`
	RecallPlace        string           `json:"recall_place"`
	RecallDay          string           `json:"recall_day"`
	RecallTitle        string           `json:"recall_title"`
	RecallDescription  string           `json:"recall_description,omitempty"`
	SendPlace          string           `json:"send_place,omitempty"`
	SendDay            string           `json:"send_day,omitempty"`
	RefundPay          *decimal.Decimal `json:"refund_pay,omitempty"`
}

// MarshalJSON writes the refunded amount as a plain number
func (r Refund) MarshalJSON() ([]byte, error) {
	type refund Refund
	return json.Marshal(struct {
		refund
		RefundPay *json.Number `json:"refund_pay,omitempty"`
	}{refund(r), money.NumberPtr(r.RefundPay)})
}

// RequestRefundInput is the body of POST /refunds/order-item/:id/refund.
// Status travels as a query parameter.
type RequestRefundInput struct {
	OrderItemID        string           `json:"-"`
	Status             RefundStatus     `json:"-"`
	Count              int              `json:"count"`
	ProblemTitle       string           `json:"problemTitle"`
	ProblemDescription string           `json:"problemDescription"`
	RecallDay          string           `json:"recallDay"`
	RecallPlace        string           `json:"recallPlace"`
	RecallTitle        string           `json:"recallTitle"`
	RecallDescription  string           `json:"recallDescription,omitempty"`
	RefundPay          *decimal.Decimal `json:"refundPay,omitempty"`
	SendDay            string           `json:"sendDay,omitempty"`
	SendPlace          string           `json:"sendPlace,omitempty"`
}

// MarshalJSON writes the refunded amount as a plain number
func (in RequestRefundInput) MarshalJSON() ([]byte, error) {
	type requestRefundInput RequestRefundInput
	return json.Marshal(struct {
		requestRefundInput
		RefundPay *json.Number `json:"refundPay,omitempty"`
	}{requestRefundInput(in), money.NumberPtr(in.RefundPay)})
}
