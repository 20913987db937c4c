package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no coupon exists for a given code.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a named discount that can be attached to an order by code.
// The amount is stored on the order for later settlement; nothing in this
// service applies it against a total.
type Coupon struct {
	ID     string
	Code   string
	Amount decimal.Decimal
}

// Repository provides coupon lookup by exact code. Codes are matched
// case-sensitively with no normalization.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
