package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/shoply/storefront/internal/domain/cart"
)

// Sentinel errors for checkout state transitions.
var (
	// ErrInvalidPaymentOption is returned when the submitted payment option
	// is outside the supported set.
	ErrInvalidPaymentOption = errors.New("invalid payment option")
	// ErrCheckoutIncomplete is returned when payment entry is attempted
	// before a billing address has been captured.
	ErrCheckoutIncomplete = errors.New("checkout incomplete")
)

// PaymentOption enumerates the supported payment paths.
type PaymentOption string

const (
	// PaymentMobileMoney hands the order off to the mobile money gateway.
	PaymentMobileMoney PaymentOption = "MM"
	// PaymentCashOnDelivery settles the order on delivery.
	PaymentCashOnDelivery PaymentOption = "COD"
)

// BillingAddress is the one-time address snapshot captured at checkout.
// It is immutable after creation; a new checkout attempt creates a new one.
type BillingAddress struct {
	ID            string
	UserID        string
	StreetAddress string
	District      string
	Country       string
	Zip           string
}

// BillingRepository persists billing address snapshots.
type BillingRepository interface {
	Create(ctx context.Context, a *BillingAddress) error
}

// Outcome is the terminal state of a successful checkout submission.
type Outcome string

const (
	// OutcomePaymentRedirect means the caller should continue to the
	// payment collection step. The order stays un-ordered until payment
	// completes.
	OutcomePaymentRedirect Outcome = "payment_redirect"
	// OutcomeCashOnDelivery means the order will be paid on delivery.
	// The order stays un-ordered; settlement happens outside this service.
	OutcomeCashOnDelivery Outcome = "cash_on_delivery"
)

// SubmitResult holds the outcome of a checkout submission.
type SubmitResult struct {
	Outcome Outcome
	Order   *cart.Order
	Billing *BillingAddress
}

// Service orchestrates a single order's checkout attempt: form validation,
// billing capture, and dispatch to a payment path.
type Service struct {
	orders  cart.OrderRepository
	billing BillingRepository

	newID func() string
}

// NewService creates a checkout Service.
func NewService(orders cart.OrderRepository, billing BillingRepository) *Service {
	return &Service{
		orders:  orders,
		billing: billing,
		newID:   func() string { return uuid.New().String() },
	}
}

// Submit validates the address form, persists a billing address snapshot,
// attaches it to the user's active order, and branches on the payment option.
// The active-order check runs before validation, so an empty cart surfaces as
// cart.ErrNoActiveOrder even for a malformed form. An unknown payment option
// returns ErrInvalidPaymentOption after the billing address has already been
// attached; the order keeps it for the next attempt.
func (s *Service) Submit(ctx context.Context, userID string, form AddressForm) (*SubmitResult, error) {
	order, err := s.orders.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if ferrs := form.Validate(); len(ferrs) > 0 {
		return nil, ferrs
	}

	b := &BillingAddress{
		ID:            s.newID(),
		UserID:        userID,
		StreetAddress: form.StreetAddress,
		District:      form.District,
		Country:       form.Country,
		Zip:           form.Zip,
	}
	if err := s.billing.Create(ctx, b); err != nil {
		return nil, errors.Wrap(err, "create billing address")
	}
	if err := s.orders.SetBillingAddress(ctx, order.ID, b.ID); err != nil {
		return nil, errors.Wrap(err, "attach billing address")
	}
	order.BillingAddressID = &b.ID

	switch PaymentOption(form.PaymentOption) {
	case PaymentMobileMoney:
		return &SubmitResult{Outcome: OutcomePaymentRedirect, Order: order, Billing: b}, nil
	case PaymentCashOnDelivery:
		return &SubmitResult{Outcome: OutcomeCashOnDelivery, Order: order, Billing: b}, nil
	default:
		return nil, ErrInvalidPaymentOption
	}
}

// EnterPayment checks that the user's active order is ready for payment,
// i.e. a billing address has been attached. A missing billing address, or a
// missing order altogether, returns ErrCheckoutIncomplete.
func (s *Service) EnterPayment(ctx context.Context, userID string) (*cart.Order, error) {
	order, err := s.orders.ActiveForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNoActiveOrder) {
			return nil, ErrCheckoutIncomplete
		}
		return nil, errors.Wrap(err, "active order")
	}
	if order.BillingAddressID == nil {
		return nil, ErrCheckoutIncomplete
	}
	return order, nil
}
