// Package refund drives the three-step refund request flow for one
// delivered order item.
package refund

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/money"
	"github.com/tair/storefront/internal/validation"
	"github.com/tair/storefront/pkg/logger"
)

// MaxDescriptionLength bounds the problem description in characters
const MaxDescriptionLength = 250

var (
	ErrWrongStep       = errors.New("operation not allowed at this step")
	ErrInvalidCount    = errors.New("refund count out of range")
	ErrNotRefundable   = errors.New("order item cannot be refunded")
	ErrUnknownReason   = errors.New("unknown refund reason")
	ErrUnknownSolution = errors.New("unknown refund solution")
	ErrNoAddress       = errors.New("user has no address for pickup")
)

// Step is the wizard position
type Step int

const (
	StepSelectItem Step = iota + 1
	StepSelectReason
	StepSelectSolution
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepSelectItem:
		return "select-item"
	case StepSelectReason:
		return "select-reason"
	case StepSelectSolution:
		return "select-solution"
	case StepSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Submitter sends the finished request
type Submitter interface {
	RequestRefund(ctx context.Context, in domain.RequestRefundInput) (*domain.OrderItem, error)
}

// Option configures a Wizard
type Option func(*Wizard)

// WithClock replaces time.Now for the pickup day
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		w.now = now
	}
}

// Wizard is a linear state machine. Steps only move forward.
type Wizard struct {
	submitter Submitter
	now       func() time.Time

	orderItem domain.OrderItem
	user      domain.User

	mu          sync.Mutex
	step        Step
	count       int
	reason      Reason
	description string
	solution    domain.RefundStatus
	recallPlace RecallPlace
	note        string
}

// New starts a wizard for a delivered order item
func New(submitter Submitter, orderItem domain.OrderItem, user domain.User, opts ...Option) (*Wizard, error) {
	if orderItem.Item == nil || !orderItem.Status.CanRefund() || orderItem.Refundable() < 1 {
		return nil, ErrNotRefundable
	}
	if strings.TrimSpace(user.Address1) == "" {
		return nil, ErrNoAddress
	}

	w := &Wizard{
		submitter: submitter,
		now:       time.Now,
		orderItem: orderItem,
		user:      user,
		step:      StepSelectItem,
		count:     orderItem.Refundable(),
		solution:  domain.RefundExchanged,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Step returns the current step
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// CountOptions lists the selectable counts
func (w *Wizard) CountOptions() []int {
	n := w.orderItem.Refundable()
	opts := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		opts = append(opts, i)
	}
	return opts
}

// Count returns the selected count. It defaults to every unit not yet
// refunded.
func (w *Wizard) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// SelectItem confirms the count and moves to the reason step
func (w *Wizard) SelectItem(count int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepSelectItem {
		return ErrWrongStep
	}
	if limit := w.orderItem.Refundable(); count < 1 || count > limit {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidCount, count, limit)
	}
	w.count = count
	w.step = StepSelectReason
	return nil
}

// SelectReason picks exactly one reason and describes the problem
func (w *Wizard) SelectReason(code, description string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepSelectReason {
		return ErrWrongStep
	}
	reason, ok := ReasonByCode(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownReason, code)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return validation.New("problemDescription", "is required")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return validation.New("problemDescription", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}

	w.reason = reason
	w.description = description
	w.step = StepSelectSolution
	return nil
}

// SelectSolution records the solution and the pickup details. An empty
// status keeps the Exchanged default. It may be called again before Submit.
func (w *Wizard) SelectSolution(status domain.RefundStatus, place RecallPlace, note string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepSelectSolution {
		return ErrWrongStep
	}
	if status == "" {
		status = domain.RefundExchanged
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSolution, status)
	}
	if !place.Valid() {
		return validation.New("recallTitle", "must be one of the pickup places")
	}

	w.solution = status
	w.recallPlace = place
	w.note = strings.TrimSpace(note)
	return nil
}

// RefundAmount is sale price x count for refunds; exchanges carry no amount
func (w *Wizard) RefundAmount() (decimal.Decimal, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refundAmount()
}

func (w *Wizard) refundAmount() (decimal.Decimal, bool) {
	if w.solution != domain.RefundRefunded {
		return decimal.Zero, false
	}
	return money.Line(w.orderItem.Item.SalePrice, w.count), true
}

// Input builds the request body from the current selections
func (w *Wizard) Input() domain.RequestRefundInput {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input()
}

func (w *Wizard) input() domain.RequestRefundInput {
	day := w.now().AddDate(0, 0, 1).Format(time.RFC3339)
	in := domain.RequestRefundInput{
		OrderItemID:        w.orderItem.ID,
		Status:             w.solution,
		Count:              w.count,
		ProblemTitle:       w.reason.Title,
		ProblemDescription: w.description,
		RecallDay:          day,
		RecallPlace:        w.user.Address1,
		RecallTitle:        string(w.recallPlace),
		RecallDescription:  w.note,
		SendDay:            day,
		SendPlace:          w.user.Address1,
	}
	if amount, ok := w.refundAmount(); ok {
		in.RefundPay = &amount
	}
	return in
}

// Submit posts the request once. A failure leaves the wizard on the
// solution step so the user can try again.
func (w *Wizard) Submit(ctx context.Context) (*domain.OrderItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepSelectSolution {
		return nil, ErrWrongStep
	}
	if w.recallPlace == "" {
		return nil, validation.New("recallTitle", "is required")
	}

	in := w.input()
	updated, err := w.submitter.RequestRefund(ctx, in)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("order_item_id", in.OrderItemID).Msg("Refund request failed")
		return nil, err
	}

	w.step = StepSubmitted
	logger.Info(ctx).
		Str("order_item_id", in.OrderItemID).
		Str("status", string(in.Status)).
		Int("count", in.Count).
		Msg("Refund requested")
	return updated, nil
}
