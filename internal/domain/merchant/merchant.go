package merchant

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a referenced merchant does not exist.
var ErrNotFound = errors.New("merchant not found")

// Merchant is the aggregate root owning coupons. Merchants are created and
// destroyed outside this service; the coupon lifecycle only reads them.
type Merchant struct {
	ID   string
	Name string
}

// Repository defines read operations for merchants.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Merchant, error)
}
