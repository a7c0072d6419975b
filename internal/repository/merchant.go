package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/merchant-coupons/internal/domain/merchant"
)

const getMerchantByIDSQL = `SELECT id, name FROM merchants WHERE id = $1`

var _ merchant.Repository = (*MerchantRepository)(nil)

// MerchantRepository implements merchant.Repository backed by PostgreSQL.
type MerchantRepository struct {
	pool *pgxpool.Pool
}

// NewMerchantRepository returns a MerchantRepository that uses the given pool.
func NewMerchantRepository(pool *pgxpool.Pool) *MerchantRepository {
	return &MerchantRepository{pool: pool}
}

// GetByID returns a single merchant by its identifier.
// Returns merchant.ErrNotFound when no such merchant exists.
func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*merchant.Merchant, error) {
	var m merchant.Merchant
	err := r.pool.QueryRow(ctx, getMerchantByIDSQL, id).Scan(&m.ID, &m.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, merchant.ErrNotFound
		}
		return nil, fmt.Errorf("getting merchant %q: %w", id, err)
	}
	return &m, nil
}
