package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/merchant-coupons/internal/domain/coupon"
	"github.com/xenking/merchant-coupons/internal/domain/merchant"
)

const (
	couponColumns = `id, merchant_id, name, code, discount_type, discount_value, active, created_at, updated_at`

	insertCouponSQL = `INSERT INTO coupons (id, merchant_id, name, code, discount_type, discount_value, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	// Locking the merchant row serializes every limit-guarded transition for
	// that merchant: the active count cannot change between the check and
	// the write, so concurrent activations can never overshoot the cap.
	lockMerchantSQL = `SELECT id FROM merchants WHERE id = $1 FOR UPDATE`

	getCouponSQL          = `SELECT ` + couponColumns + ` FROM coupons WHERE merchant_id = $1 AND id = $2`
	getCouponForUpdateSQL = getCouponSQL + ` FOR UPDATE`

	listCouponsSQL         = `SELECT ` + couponColumns + ` FROM coupons WHERE merchant_id = $1 ORDER BY id`
	listCouponsByStatusSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE merchant_id = $1 AND active = $2 ORDER BY id`

	countActiveSQL       = `SELECT COUNT(*) FROM coupons WHERE merchant_id = $1 AND active = TRUE`
	countActiveOthersSQL = countActiveSQL + ` AND id <> $2`

	setCouponActiveSQL = `UPDATE coupons SET active = $3, updated_at = now()
		WHERE merchant_id = $1 AND id = $2
		RETURNING ` + couponColumns

	hasPendingInvoicesSQL = `SELECT EXISTS (SELECT 1 FROM invoices WHERE coupon_id = $1 AND status = 'pending')`
)

// Postgres error codes per SQLSTATE.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL. All
// mutating operations run in a transaction so the policy checks and the
// status write commit or roll back together.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create inserts a new coupon. When the coupon is created active, the owning
// merchant's row is locked for the duration of the transaction and the
// active count is re-checked under that lock. Code uniqueness is enforced
// by the unique index; a violation surfaces as coupon.ErrCodeTaken.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if c.Active {
			if err := lockMerchant(ctx, tx, c.MerchantID); err != nil {
				return err
			}

			var active int
			if err := tx.QueryRow(ctx, countActiveSQL, c.MerchantID).Scan(&active); err != nil {
				return fmt.Errorf("counting active coupons: %w", err)
			}
			if !coupon.WithinActiveLimit(active) {
				return coupon.ErrActiveLimitExceeded
			}
		}

		err := tx.QueryRow(ctx, insertCouponSQL,
			c.ID, c.MerchantID, c.Name, c.Code, c.DiscountType, c.DiscountValue, c.Active,
		).Scan(&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return mapInsertError(err)
		}
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Activate sets the coupon active, holding the merchant row lock across the
// active count check and the update. Already-active coupons are returned
// unchanged.
func (r *CouponRepository) Activate(ctx context.Context, merchantID, couponID string) (*coupon.Coupon, error) {
	var out *coupon.Coupon
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockMerchant(ctx, tx, merchantID); err != nil {
			return err
		}

		c, err := getCoupon(ctx, tx, getCouponSQL, merchantID, couponID)
		if err != nil {
			return err
		}
		if c.Active {
			out = c // idempotent no-op
			return nil
		}

		var activeOthers int
		if err := tx.QueryRow(ctx, countActiveOthersSQL, merchantID, couponID).Scan(&activeOthers); err != nil {
			return fmt.Errorf("counting active coupons: %w", err)
		}
		if !coupon.WithinActiveLimit(activeOthers) {
			return coupon.ErrActiveLimitExceeded
		}

		out, err = setActive(ctx, tx, merchantID, couponID, true)
		return err
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("activating coupon %q: %w", couponID, err)
	}
	return out, nil
}

// Deactivate sets the coupon inactive unless a pending invoice references
// it. The coupon row is locked and the pending-invoice existence check runs
// in the same transaction, immediately before the write, so the committed
// state is consistent with what was observed. Already-inactive coupons are
// returned unchanged.
func (r *CouponRepository) Deactivate(ctx context.Context, merchantID, couponID string) (*coupon.Coupon, error) {
	var out *coupon.Coupon
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := getCoupon(ctx, tx, getCouponForUpdateSQL, merchantID, couponID)
		if err != nil {
			return err
		}
		if !c.Active {
			out = c // idempotent no-op
			return nil
		}

		var hasPending bool
		if err := tx.QueryRow(ctx, hasPendingInvoicesSQL, couponID).Scan(&hasPending); err != nil {
			// A failed read blocks the deactivation, never allows it.
			return fmt.Errorf("checking pending invoices: %w", err)
		}
		if !coupon.CanDeactivate(hasPending) {
			return coupon.ErrDeactivationBlocked
		}

		out, err = setActive(ctx, tx, merchantID, couponID, false)
		return err
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("deactivating coupon %q: %w", couponID, err)
	}
	return out, nil
}

// GetByID returns the coupon scoped to the merchant.
// Returns coupon.ErrNotFound when no such coupon exists under the merchant.
func (r *CouponRepository) GetByID(ctx context.Context, merchantID, couponID string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponSQL, merchantID, couponID)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %q: %w", couponID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %q: %w", couponID, err)
	}
	return &c, nil
}

// ListByMerchant returns the merchant's coupons ordered by id, optionally
// restricted by status.
func (r *CouponRepository) ListByMerchant(ctx context.Context, merchantID string, filter coupon.StatusFilter) ([]coupon.Coupon, error) {
	var rows pgx.Rows
	var err error
	switch filter {
	case coupon.FilterActive:
		rows, err = r.pool.Query(ctx, listCouponsByStatusSQL, merchantID, true)
	case coupon.FilterInactive:
		rows, err = r.pool.Query(ctx, listCouponsByStatusSQL, merchantID, false)
	default:
		rows, err = r.pool.Query(ctx, listCouponsSQL, merchantID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing coupons for merchant %q: %w", merchantID, err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// CountActive returns the merchant's current number of active coupons.
func (r *CouponRepository) CountActive(ctx context.Context, merchantID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countActiveSQL, merchantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting active coupons for merchant %q: %w", merchantID, err)
	}
	return n, nil
}

func lockMerchant(ctx context.Context, tx pgx.Tx, merchantID string) error {
	var id string
	if err := tx.QueryRow(ctx, lockMerchantSQL, merchantID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return merchant.ErrNotFound
		}
		return fmt.Errorf("locking merchant %q: %w", merchantID, err)
	}
	return nil
}

func getCoupon(ctx context.Context, tx pgx.Tx, sql, merchantID, couponID string) (*coupon.Coupon, error) {
	rows, err := tx.Query(ctx, sql, merchantID, couponID)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %q: %w", couponID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %q: %w", couponID, err)
	}
	return &c, nil
}

func setActive(ctx context.Context, tx pgx.Tx, merchantID, couponID string, active bool) (*coupon.Coupon, error) {
	rows, err := tx.Query(ctx, setCouponActiveSQL, merchantID, couponID, active)
	if err != nil {
		return nil, fmt.Errorf("updating coupon %q: %w", couponID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("updating coupon %q: %w", couponID, err)
	}
	return &c, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
	)
	err := row.Scan(
		&c.ID, &c.MerchantID, &c.Name, &c.Code, &discountType,
		&c.DiscountValue, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	c.DiscountType = coupon.DiscountType(discountType)
	return c, err
}

// mapInsertError translates constraint violations into domain errors: the
// unique index on coupons.code backs the global code-uniqueness rule, and
// the merchant foreign key catches a merchant deleted between the service
// check and the insert.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == "coupons_code_key" {
				return coupon.ErrCodeTaken
			}
		case pgForeignKeyViolation:
			if pgErr.ConstraintName == "coupons_merchant_id_fkey" {
				return merchant.ErrNotFound
			}
		}
	}
	return fmt.Errorf("inserting coupon: %w", err)
}

func isDomainError(err error) bool {
	return errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrCodeTaken) ||
		errors.Is(err, coupon.ErrActiveLimitExceeded) ||
		errors.Is(err, coupon.ErrDeactivationBlocked) ||
		errors.Is(err, merchant.ErrNotFound)
}
