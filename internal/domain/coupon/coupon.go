package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// PercentOff discounts a percentage of the invoice total.
	PercentOff DiscountType = "percent_off"
	// DollarOff discounts a fixed dollar amount.
	DollarOff DiscountType = "dollar_off"
)

// Sentinel errors for coupon lifecycle operations. The API layer maps these
// to user-facing messages and status codes.
var (
	// ErrNotFound is returned when a coupon does not exist under the merchant.
	ErrNotFound = errors.New("coupon not found")
	// ErrActiveLimitExceeded is returned when a transition into the active
	// state would push the merchant past the active-coupon cap.
	ErrActiveLimitExceeded = errors.New("merchant active coupon limit exceeded")
	// ErrDeactivationBlocked is returned when a coupon with pending invoices
	// is asked to deactivate.
	ErrDeactivationBlocked = errors.New("coupon has pending invoices")
	// ErrCodeTaken is returned by storage when the coupon code collides with
	// an existing one. The service folds it into a ValidationError.
	ErrCodeTaken = errors.New("coupon code already taken")
)

// ValidationError aggregates every violated field rule from one persistence
// attempt, mirroring ActiveRecord-style full messages.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, ", ")
}

// Coupon is a discount rule scoped to exactly one merchant. The merchant
// reference is immutable after creation and the code is unique across the
// whole coupon population, not just per merchant.
type Coupon struct {
	ID            string
	MerchantID    string
	Name          string
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusFilter restricts List results by coupon status.
type StatusFilter int

const (
	// FilterAll returns every coupon of the merchant.
	FilterAll StatusFilter = iota
	// FilterActive returns only active coupons.
	FilterActive
	// FilterInactive returns only inactive coupons.
	FilterInactive
)

// ParseStatusFilter maps the query parameter to a filter. Any value other
// than "active" or "inactive" (including absent) means no filtering.
func ParseStatusFilter(s string) StatusFilter {
	switch s {
	case "active":
		return FilterActive
	case "inactive":
		return FilterInactive
	default:
		return FilterAll
	}
}

// Repository provides coupon persistence. Mutating operations are
// transactional: the guard checks they perform (active limit, pending
// invoices, code uniqueness) are evaluated under locks in the same
// transaction as the write, so either the guard holds and the new state
// commits, or nothing changes.
type Repository interface {
	// Create inserts the coupon. When c.Active is true the merchant's active
	// count is checked under a merchant row lock; a duplicate code yields
	// ErrCodeTaken, a full merchant yields ErrActiveLimitExceeded.
	Create(ctx context.Context, c *Coupon) error

	// Activate transitions the coupon to active, enforcing the per-merchant
	// cap. Activating an already-active coupon is a no-op success.
	Activate(ctx context.Context, merchantID, couponID string) (*Coupon, error)

	// Deactivate transitions the coupon to inactive unless a pending invoice
	// references it. Deactivating an already-inactive coupon is a no-op
	// success.
	Deactivate(ctx context.Context, merchantID, couponID string) (*Coupon, error)

	// GetByID returns the coupon scoped to the merchant, or ErrNotFound.
	GetByID(ctx context.Context, merchantID, couponID string) (*Coupon, error)

	// ListByMerchant returns the merchant's coupons ordered by id.
	ListByMerchant(ctx context.Context, merchantID string, filter StatusFilter) ([]Coupon, error)

	// CountActive returns the number of the merchant's active coupons.
	CountActive(ctx context.Context, merchantID string) (int, error)
}
