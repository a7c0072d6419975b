package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/merchant-coupons/internal/domain/invoice"
)

const (
	invoiceColumns = `id, merchant_id, customer_id, COALESCE(coupon_id, ''), status`

	listInvoicesSQL = `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE merchant_id = $1 ORDER BY id`

	listInvoicesByStatusSQL = `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE merchant_id = $1 AND status = $2 ORDER BY id`

	countInvoicesByCouponSQL = `SELECT COUNT(*) FROM invoices WHERE coupon_id = $1`
)

var _ invoice.Reader = (*InvoiceRepository)(nil)

// InvoiceRepository implements invoice.Reader backed by PostgreSQL. Invoices
// are written by an external fulfilment flow; this service only reads them.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository returns an InvoiceRepository that uses the given pool.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// ListByMerchant returns the merchant's invoices ordered by id. An empty
// status returns all of them.
func (r *InvoiceRepository) ListByMerchant(ctx context.Context, merchantID string, status invoice.Status) ([]invoice.Invoice, error) {
	var rows pgx.Rows
	var err error
	if status == "" {
		rows, err = r.pool.Query(ctx, listInvoicesSQL, merchantID)
	} else {
		rows, err = r.pool.Query(ctx, listInvoicesByStatusSQL, merchantID, status)
	}
	if err != nil {
		return nil, fmt.Errorf("listing invoices for merchant %q: %w", merchantID, err)
	}
	return pgx.CollectRows(rows, scanInvoice)
}

// CountByCoupon returns how many invoices reference the coupon, regardless
// of their status.
func (r *InvoiceRepository) CountByCoupon(ctx context.Context, couponID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countInvoicesByCouponSQL, couponID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting invoices for coupon %q: %w", couponID, err)
	}
	return n, nil
}

func scanInvoice(row pgx.CollectableRow) (invoice.Invoice, error) {
	var (
		inv    invoice.Invoice
		status string
	)
	err := row.Scan(&inv.ID, &inv.MerchantID, &inv.CustomerID, &inv.CouponID, &status)
	inv.Status = invoice.Status(status)
	return inv, err
}
