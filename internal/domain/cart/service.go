package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/shoply/storefront/internal/domain/catalog"
	"github.com/shoply/storefront/internal/domain/coupon"
)

// Service implements the cart mutations: add, remove, decrement, and coupon
// application. Every operation runs within a single request; there is no
// locking across requests, so concurrent mutations for the same user are
// last-write-wins.
type Service struct {
	items   catalog.Repository
	coupons coupon.Repository
	orders  OrderRepository
	lines   LineRepository

	now   func() time.Time
	newID func() string
}

// NewService creates a cart Service with the required repositories.
func NewService(
	items catalog.Repository,
	coupons coupon.Repository,
	orders OrderRepository,
	lines LineRepository,
) *Service {
	return &Service{
		items:   items,
		coupons: coupons,
		orders:  orders,
		lines:   lines,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// AddResult reports which branch an AddItem call took.
type AddResult struct {
	Order *Order
	Line  *Line
	// QuantityUpdated is true when the item was already in the cart and
	// its quantity was incremented.
	QuantityUpdated bool
	// OrderCreated is true when the call created the active order.
	OrderCreated bool
}

// AddItem adds one unit of the item with the given slug to the user's cart.
// An unordered line for (user, item) is found or created with quantity 1.
// If the active order already holds that line, the quantity is incremented
// by one; otherwise the line is attached. When the user has no active order,
// a new one is created first. Unknown slugs propagate catalog.ErrNotFound.
func (s *Service) AddItem(ctx context.Context, userID, slug string) (*AddResult, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	line, _, err := s.lines.GetOrCreate(ctx, userID, item.ID)
	if err != nil {
		return nil, errors.Wrap(err, "get or create line")
	}

	order, err := s.orders.ActiveForUser(ctx, userID)
	switch {
	case err == nil:
		if existing := order.LineFor(item.ID); existing != nil {
			qty := existing.Quantity + 1
			if err := s.lines.SetQuantity(ctx, existing.ID, qty); err != nil {
				return nil, errors.Wrap(err, "increment quantity")
			}
			existing.Quantity = qty
			return &AddResult{Order: order, Line: existing, QuantityUpdated: true}, nil
		}

		if err := s.orders.AttachLine(ctx, order.ID, line.ID); err != nil {
			return nil, errors.Wrap(err, "attach line")
		}
		order.Lines = append(order.Lines, *line)
		return &AddResult{Order: order, Line: line}, nil

	case errors.Is(err, ErrNoActiveOrder):
		now := s.now()
		order = &Order{
			ID:          s.newID(),
			UserID:      userID,
			StartDate:   now,
			OrderedDate: now,
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return nil, errors.Wrap(err, "create order")
		}
		if err := s.orders.AttachLine(ctx, order.ID, line.ID); err != nil {
			return nil, errors.Wrap(err, "attach line")
		}
		order.Lines = append(order.Lines, *line)
		return &AddResult{Order: order, Line: line, OrderCreated: true}, nil

	default:
		return nil, errors.Wrap(err, "active order")
	}
}

// RemoveItem detaches the line for the given slug from the user's active
// order, regardless of its quantity. The line row itself survives detached,
// so only DecrementItem ever lowers a quantity. Returns ErrNoActiveOrder
// when the cart is empty and ErrLineNotFound when the item is not in it.
func (s *Service) RemoveItem(ctx context.Context, userID, slug string) (*Order, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	line := order.LineFor(item.ID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	if err := s.orders.DetachLine(ctx, order.ID, line.ID); err != nil {
		return nil, errors.Wrap(err, "detach line")
	}
	order.Lines = removeLine(order.Lines, line.ID)
	return order, nil
}

// DecrementResult reports whether a DecrementItem call removed the line.
type DecrementResult struct {
	Order *Order
	// Removed is true when the line was at quantity 1 and was detached.
	Removed bool
}

// DecrementItem lowers the quantity of the line for the given slug by one.
// At quantity 1 the line is detached from the order instead. Failure
// branches match RemoveItem.
func (s *Service) DecrementItem(ctx context.Context, userID, slug string) (*DecrementResult, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	line := order.LineFor(item.ID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	if line.Quantity > 1 {
		qty := line.Quantity - 1
		if err := s.lines.SetQuantity(ctx, line.ID, qty); err != nil {
			return nil, errors.Wrap(err, "decrement quantity")
		}
		line.Quantity = qty
		return &DecrementResult{Order: order}, nil
	}

	if err := s.orders.DetachLine(ctx, order.ID, line.ID); err != nil {
		return nil, errors.Wrap(err, "detach line")
	}
	order.Lines = removeLine(order.Lines, line.ID)
	return &DecrementResult{Order: order, Removed: true}, nil
}

// ApplyCoupon attaches the coupon with the given code to the user's active
// order, overwriting any previously attached coupon. The coupon is stored by
// reference only; its amount is never applied to a total here. Returns
// ErrNoActiveOrder for an empty cart and coupon.ErrNotFound for unknown codes.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) (*Order, error) {
	order, err := s.orders.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetCoupon(ctx, order.ID, c.ID); err != nil {
		return nil, errors.Wrap(err, "set coupon")
	}
	order.CouponID = &c.ID
	return order, nil
}

// ActiveOrder returns the user's active order, or ErrNoActiveOrder.
func (s *Service) ActiveOrder(ctx context.Context, userID string) (*Order, error) {
	return s.orders.ActiveForUser(ctx, userID)
}

func removeLine(lines []Line, lineID string) []Line {
	out := lines[:0]
	for _, l := range lines {
		if l.ID != lineID {
			out = append(out, l)
		}
	}
	return out
}
