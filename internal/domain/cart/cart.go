package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/shoply/storefront/internal/domain/catalog"
)

// Sentinel errors for cart operations.
var (
	// ErrNoActiveOrder is returned when a user has no unordered order,
	// i.e. their cart is empty.
	ErrNoActiveOrder = errors.New("no active order")
	// ErrLineNotFound is returned when the active order holds no line
	// for the requested item.
	ErrLineNotFound = errors.New("item not in cart")
)

// Line is a single product-and-quantity entry. A line is created the first
// time a user adds an item and keeps existing detached from any order until
// it is attached to one. Quantity is always at least 1.
type Line struct {
	ID       string
	UserID   string
	Item     catalog.Item
	Ordered  bool
	Quantity int
}

// Order is the cart aggregate. At most one order per user has Ordered=false;
// that order is the user's active cart. The Ordered flag flips only after a
// successful payment, which is outside this service.
type Order struct {
	ID               string
	UserID           string
	Lines            []Line
	StartDate        time.Time
	OrderedDate      time.Time
	Ordered          bool
	CouponID         *string
	BillingAddressID *string
}

// LineFor returns the order's line for the given item, or nil.
func (o *Order) LineFor(itemID string) *Line {
	for i := range o.Lines {
		if o.Lines[i].Item.ID == itemID {
			return &o.Lines[i]
		}
	}
	return nil
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// ActiveForUser returns the user's single unordered order with its
	// lines hydrated, or ErrNoActiveOrder.
	ActiveForUser(ctx context.Context, userID string) (*Order, error)
	Create(ctx context.Context, o *Order) error
	AttachLine(ctx context.Context, orderID, lineID string) error
	DetachLine(ctx context.Context, orderID, lineID string) error
	SetCoupon(ctx context.Context, orderID, couponID string) error
	SetBillingAddress(ctx context.Context, orderID, billingAddressID string) error
}

// LineRepository defines persistence operations for order lines.
type LineRepository interface {
	// GetOrCreate returns the user's unordered line for the item, inserting
	// a quantity-1 line when none exists. The boolean reports whether the
	// line was created by this call.
	GetOrCreate(ctx context.Context, userID, itemID string) (*Line, bool, error)
	SetQuantity(ctx context.Context, lineID string, quantity int) error
}
