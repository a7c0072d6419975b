package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/merchant-coupons/internal/domain/invoice"
	"github.com/xenking/merchant-coupons/internal/domain/merchant"
)

// Service is the single point of truth for coupon state transitions. It
// resolves the owning merchant, runs field validation, and delegates the
// guarded writes to the Repository, whose transactions make the guard
// checks atomic with the status writes.
type Service struct {
	coupons   Repository
	merchants merchant.Repository
	invoices  invoice.Reader
}

// NewService creates a coupon Service with the required dependencies.
func NewService(coupons Repository, merchants merchant.Repository, invoices invoice.Reader) *Service {
	return &Service{
		coupons:   coupons,
		merchants: merchants,
		invoices:  invoices,
	}
}

// Create validates the input and persists a new coupon for the merchant.
// A coupon created active counts against the merchant's active limit
// immediately. On any error nothing is persisted.
func (s *Service) Create(ctx context.Context, merchantID string, in CreateInput) (*Coupon, error) {
	if _, err := s.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, errors.Wrap(err, "resolve merchant")
	}

	if verr := Validate(in); verr != nil {
		return nil, verr
	}

	c := &Coupon{
		ID:            uuid.New().String(),
		MerchantID:    merchantID,
		Name:          in.Name,
		Code:          in.Code,
		DiscountType:  DiscountType(in.DiscountType),
		DiscountValue: in.DiscountValue,
		Active:        in.Active,
	}

	if err := s.coupons.Create(ctx, c); err != nil {
		if errors.Is(err, ErrCodeTaken) {
			return nil, &ValidationError{Messages: []string{MsgCodeTaken}}
		}
		return nil, err
	}
	return c, nil
}

// Activate transitions the coupon into the active state. Activating an
// already-active coupon succeeds without changes.
func (s *Service) Activate(ctx context.Context, merchantID, couponID string) (*Coupon, error) {
	if _, err := s.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, errors.Wrap(err, "resolve merchant")
	}
	return s.coupons.Activate(ctx, merchantID, couponID)
}

// Deactivate transitions the coupon into the inactive state. Deactivating an
// already-inactive coupon succeeds without changes.
func (s *Service) Deactivate(ctx context.Context, merchantID, couponID string) (*Coupon, error) {
	if _, err := s.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, errors.Wrap(err, "resolve merchant")
	}
	return s.coupons.Deactivate(ctx, merchantID, couponID)
}

// Get returns the coupon scoped to the merchant.
func (s *Service) Get(ctx context.Context, merchantID, couponID string) (*Coupon, error) {
	if _, err := s.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, errors.Wrap(err, "resolve merchant")
	}
	return s.coupons.GetByID(ctx, merchantID, couponID)
}

// List returns the merchant's coupons, optionally restricted by status.
func (s *Service) List(ctx context.Context, merchantID string, filter StatusFilter) ([]Coupon, error) {
	if _, err := s.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, errors.Wrap(err, "resolve merchant")
	}
	return s.coupons.ListByMerchant(ctx, merchantID, filter)
}

// UsageCount returns how many invoices reference the coupon, regardless of
// invoice status. It is an informational statistic: when the invoice store
// is unreachable it degrades to 0 instead of failing the caller. The
// pending-invoice gate never takes this path; it reads invoice state inside
// the deactivation transaction and fails closed.
func (s *Service) UsageCount(ctx context.Context, couponID string) int {
	n, err := s.invoices.CountByCoupon(ctx, couponID)
	if err != nil {
		return 0
	}
	return n
}

// ActiveCount returns the merchant's current number of active coupons as a
// read-only statistic. Like UsageCount it degrades to 0 on read failure;
// the authoritative count for limit enforcement is taken inside the
// repository transactions.
func (s *Service) ActiveCount(ctx context.Context, merchantID string) int {
	n, err := s.coupons.CountActive(ctx, merchantID)
	if err != nil {
		return 0
	}
	return n
}

// ListInvoices returns the merchant's invoices, optionally restricted to an
// exact status. Unknown filter values return all invoices.
func (s *Service) ListInvoices(ctx context.Context, merchantID string, status invoice.Status) ([]invoice.Invoice, error) {
	if _, err := s.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, errors.Wrap(err, "resolve merchant")
	}
	if !invoice.ValidStatus(status) {
		status = ""
	}
	return s.invoices.ListByMerchant(ctx, merchantID, status)
}
