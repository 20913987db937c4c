package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoply/storefront/internal/domain/catalog"
)

const (
	listItemsSQL = `SELECT id, title, price, slug, category, label
		FROM items ORDER BY slug`

	getItemBySlugSQL = `SELECT id, title, price, slug, category, label
		FROM items WHERE slug = $1`
)

var _ catalog.Repository = (*ItemRepository)(nil)

// ItemRepository implements catalog.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// List returns all catalog items ordered by slug.
func (r *ItemRepository) List(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetBySlug returns a single item by its slug.
// Returns catalog.ErrNotFound when no such item exists.
func (r *ItemRepository) GetBySlug(ctx context.Context, slug string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemBySlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", slug, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", slug, err)
	}
	return &it, nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var it catalog.Item
	err := row.Scan(&it.ID, &it.Title, &it.Price, &it.Slug, &it.Category, &it.Label)
	return it, err
}
