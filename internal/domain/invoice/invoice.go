package invoice

import "context"

// Status enumerates the invoice lifecycle states. Invoices are mutated by an
// external fulfilment flow; this service only reads their status and coupon
// reference.
type Status string

const (
	StatusPending  Status = "pending"
	StatusShipped  Status = "shipped"
	StatusPackaged Status = "packaged"
	StatusReturned Status = "returned"
)

// ValidStatus reports whether s is one of the known invoice statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusShipped, StatusPackaged, StatusReturned:
		return true
	}
	return false
}

// Invoice belongs to one merchant and one customer and optionally references
// one coupon.
type Invoice struct {
	ID         string
	MerchantID string
	CustomerID string
	CouponID   string // empty when no coupon was applied
	Status     Status
}

// Reader provides the read-side invoice queries the coupon core depends on.
type Reader interface {
	// ListByMerchant returns a merchant's invoices, optionally restricted to
	// one status. An empty status returns all invoices.
	ListByMerchant(ctx context.Context, merchantID string, status Status) ([]Invoice, error)

	// CountByCoupon returns how many invoices reference the coupon,
	// regardless of their status.
	CountByCoupon(ctx context.Context, couponID string) (int, error)
}
