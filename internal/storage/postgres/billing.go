package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoply/storefront/internal/domain/checkout"
)

const createBillingAddressSQL = `INSERT INTO billing_addresses
	(id, user_id, street_address, district, country, zip)
	VALUES ($1, $2, $3, $4, $5, $6)`

var _ checkout.BillingRepository = (*BillingRepository)(nil)

// BillingRepository implements checkout.BillingRepository backed by
// PostgreSQL. Snapshots are insert-only; there is no update path.
type BillingRepository struct {
	pool *pgxpool.Pool
}

// NewBillingRepository returns a BillingRepository that uses the given pool.
func NewBillingRepository(pool *pgxpool.Pool) *BillingRepository {
	return &BillingRepository{pool: pool}
}

// Create persists a billing address snapshot.
func (r *BillingRepository) Create(ctx context.Context, a *checkout.BillingAddress) error {
	_, err := r.pool.Exec(ctx, createBillingAddressSQL,
		a.ID, a.UserID, a.StreetAddress, a.District, a.Country, a.Zip)
	if err != nil {
		return fmt.Errorf("creating billing address %q: %w", a.ID, err)
	}
	return nil
}
