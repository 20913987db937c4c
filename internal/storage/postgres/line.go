package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoply/storefront/internal/domain/cart"
)

const (
	findUnorderedLineSQL = `SELECT oi.id, oi.user_id, oi.ordered, oi.quantity,
			i.id, i.title, i.price, i.slug, i.category, i.label
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.user_id = $1 AND oi.item_id = $2 AND NOT oi.ordered`

	insertLineSQL = `INSERT INTO order_items (id, user_id, item_id, ordered, quantity)
		VALUES ($1, $2, $3, false, 1)
		ON CONFLICT (user_id, item_id) WHERE NOT ordered DO NOTHING`

	setLineQuantitySQL = `UPDATE order_items SET quantity = $2 WHERE id = $1`
)

var _ cart.LineRepository = (*LineRepository)(nil)

// LineRepository implements cart.LineRepository backed by PostgreSQL.
type LineRepository struct {
	pool *pgxpool.Pool
}

// NewLineRepository returns a LineRepository that uses the given pool.
func NewLineRepository(pool *pgxpool.Pool) *LineRepository {
	return &LineRepository{pool: pool}
}

// GetOrCreate looks up the user's unordered line for the item and inserts a
// quantity-1 line when none exists: an explicit find-else-insert with a
// created flag. The insert is ON CONFLICT DO NOTHING against the partial
// unique index, and the final re-read resolves a concurrent insert losing
// the race.
func (r *LineRepository) GetOrCreate(ctx context.Context, userID, itemID string) (*cart.Line, bool, error) {
	line, err := r.findUnordered(ctx, userID, itemID)
	if err == nil {
		return line, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("finding line for user %q item %q: %w", userID, itemID, err)
	}

	id := uuid.New().String()
	if _, err := r.pool.Exec(ctx, insertLineSQL, id, userID, itemID); err != nil {
		return nil, false, fmt.Errorf("inserting line for user %q item %q: %w", userID, itemID, err)
	}

	line, err = r.findUnordered(ctx, userID, itemID)
	if err != nil {
		return nil, false, fmt.Errorf("rereading line for user %q item %q: %w", userID, itemID, err)
	}
	return line, true, nil
}

// SetQuantity updates a line's quantity.
func (r *LineRepository) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	_, err := r.pool.Exec(ctx, setLineQuantitySQL, lineID, quantity)
	if err != nil {
		return fmt.Errorf("setting quantity on line %q: %w", lineID, err)
	}
	return nil
}

func (r *LineRepository) findUnordered(ctx context.Context, userID, itemID string) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, findUnorderedLineSQL, userID, itemID)
	if err != nil {
		return nil, err
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanLine)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
