package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("item not found")

// Item represents a catalog entry available for purchase. Items are created
// and managed by catalog administration; the cart only ever reads them.
type Item struct {
	ID       string
	Title    string
	Price    decimal.Decimal
	Slug     string
	Category string
	Label    string
}

// Repository defines read operations for the item catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetBySlug(ctx context.Context, slug string) (*Item, error)
}
