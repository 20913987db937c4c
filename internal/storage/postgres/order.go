package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoply/storefront/internal/domain/cart"
)

const (
	activeOrderSQL = `SELECT id, user_id, start_date, ordered_date, ordered, coupon_id, billing_address_id
		FROM orders WHERE user_id = $1 AND NOT ordered`

	orderLinesSQL = `SELECT oi.id, oi.user_id, oi.ordered, oi.quantity,
			i.id, i.title, i.price, i.slug, i.category, i.label
		FROM order_entries oe
		JOIN order_items oi ON oi.id = oe.order_item_id
		JOIN items i ON i.id = oi.item_id
		WHERE oe.order_id = $1
		ORDER BY oi.created_at`

	createOrderSQL = `INSERT INTO orders (id, user_id, start_date, ordered_date, ordered)
		VALUES ($1, $2, $3, $4, $5)`

	attachLineSQL = `INSERT INTO order_entries (order_id, order_item_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`

	detachLineSQL = `DELETE FROM order_entries WHERE order_id = $1 AND order_item_id = $2`

	setCouponSQL = `UPDATE orders SET coupon_id = $2 WHERE id = $1`

	setBillingAddressSQL = `UPDATE orders SET billing_address_id = $2 WHERE id = $1`
)

var _ cart.OrderRepository = (*OrderRepository)(nil)

// OrderRepository implements cart.OrderRepository backed by PostgreSQL.
// The one-active-order-per-user invariant is enforced by a partial unique
// index on orders(user_id) WHERE NOT ordered.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// ActiveForUser returns the user's unordered order with its lines hydrated.
// Returns cart.ErrNoActiveOrder when the user's cart is empty.
func (r *OrderRepository) ActiveForUser(ctx context.Context, userID string) (*cart.Order, error) {
	rows, err := r.pool.Query(ctx, activeOrderSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting active order for %q: %w", userID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoActiveOrder
		}
		return nil, fmt.Errorf("getting active order for %q: %w", userID, err)
	}

	lineRows, err := r.pool.Query(ctx, orderLinesSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %q: %w", o.ID, err)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanLine)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %q: %w", o.ID, err)
	}
	return &o, nil
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *cart.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL, o.ID, o.UserID, o.StartDate, o.OrderedDate, o.Ordered)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// AttachLine adds a line to the order. Attaching an already attached line is
// a no-op.
func (r *OrderRepository) AttachLine(ctx context.Context, orderID, lineID string) error {
	_, err := r.pool.Exec(ctx, attachLineSQL, orderID, lineID)
	if err != nil {
		return fmt.Errorf("attaching line %q to order %q: %w", lineID, orderID, err)
	}
	return nil
}

// DetachLine removes a line from the order. The order_items row survives
// detached.
func (r *OrderRepository) DetachLine(ctx context.Context, orderID, lineID string) error {
	_, err := r.pool.Exec(ctx, detachLineSQL, orderID, lineID)
	if err != nil {
		return fmt.Errorf("detaching line %q from order %q: %w", lineID, orderID, err)
	}
	return nil
}

// SetCoupon attaches a coupon reference to the order, replacing any previous
// one.
func (r *OrderRepository) SetCoupon(ctx context.Context, orderID, couponID string) error {
	_, err := r.pool.Exec(ctx, setCouponSQL, orderID, couponID)
	if err != nil {
		return fmt.Errorf("setting coupon on order %q: %w", orderID, err)
	}
	return nil
}

// SetBillingAddress attaches a billing address snapshot to the order.
func (r *OrderRepository) SetBillingAddress(ctx context.Context, orderID, billingAddressID string) error {
	_, err := r.pool.Exec(ctx, setBillingAddressSQL, orderID, billingAddressID)
	if err != nil {
		return fmt.Errorf("setting billing address on order %q: %w", orderID, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (cart.Order, error) {
	var o cart.Order
	err := row.Scan(&o.ID, &o.UserID, &o.StartDate, &o.OrderedDate, &o.Ordered,
		&o.CouponID, &o.BillingAddressID)
	return o, err
}

func scanLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.ID, &l.UserID, &l.Ordered, &l.Quantity,
		&l.Item.ID, &l.Item.Title, &l.Item.Price, &l.Item.Slug, &l.Item.Category, &l.Item.Label)
	return l, err
}
