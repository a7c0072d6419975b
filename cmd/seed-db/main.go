// Command seed-db populates the database with demo merchants, customers,
// coupons, and invoices for local development. Every insert is an upsert, so
// running it repeatedly is safe.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/merchant-coupons/internal/repository"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedMerchants(ctx, pool); err != nil {
		return errors.Wrap(err, "seed merchants")
	}
	if err := seedCustomers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed customers")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedInvoices(ctx, pool); err != nil {
		return errors.Wrap(err, "seed invoices")
	}

	return nil
}

const upsertMerchantSQL = `
INSERT INTO merchants (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

func seedMerchants(ctx context.Context, pool *pgxpool.Pool) error {
	merchants := []struct{ id, name string }{
		{"11111111-1111-1111-1111-111111111111", "Crimson Books"},
		{"22222222-2222-2222-2222-222222222222", "Harbor Coffee"},
	}

	for _, m := range merchants {
		if _, err := pool.Exec(ctx, upsertMerchantSQL, m.id, m.name); err != nil {
			return errors.Wrapf(err, "upsert merchant %s", m.name)
		}
		slog.Info("upserted merchant", slog.String("id", m.id), slog.String("name", m.name))
	}
	return nil
}

const upsertCustomerSQL = `
INSERT INTO customers (id, first_name, last_name)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name`

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) error {
	customers := []struct{ id, firstName, lastName string }{
		{"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", "Ada", "Byron"},
		{"bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb", "Boris", "Pasternak"},
	}

	for _, c := range customers {
		if _, err := pool.Exec(ctx, upsertCustomerSQL, c.id, c.firstName, c.lastName); err != nil {
			return errors.Wrapf(err, "upsert customer %s", c.firstName)
		}
		slog.Info("upserted customer", slog.String("id", c.id), slog.String("name", c.firstName+" "+c.lastName))
	}
	return nil
}

const upsertCouponSQL = `
INSERT INTO coupons (id, merchant_id, name, code, discount_type, discount_value, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	discount_type = EXCLUDED.discount_type,
	discount_value = EXCLUDED.discount_value,
	active = EXCLUDED.active,
	updated_at = now()`

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	coupons := []struct {
		id, merchantID, name, code, discountType string
		discountValue                            string
		active                                   bool
	}{
		{
			"cccccccc-0000-0000-0000-000000000001",
			"11111111-1111-1111-1111-111111111111",
			"Spring reading sale", "SPRING20", "percent_off", "20", true,
		},
		{
			"cccccccc-0000-0000-0000-000000000002",
			"11111111-1111-1111-1111-111111111111",
			"Five dollars off", "FIVER", "dollar_off", "5", false,
		},
		{
			"cccccccc-0000-0000-0000-000000000003",
			"22222222-2222-2222-2222-222222222222",
			"Morning rush discount", "EARLYBIRD", "percent_off", "10", true,
		},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL,
			c.id, c.merchantID, c.name, c.code, c.discountType, c.discountValue, c.active,
		); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
		slog.Info("upserted coupon", slog.String("code", c.code), slog.Bool("active", c.active))
	}
	return nil
}

const upsertInvoiceSQL = `
INSERT INTO invoices (id, merchant_id, customer_id, coupon_id, status)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`

func seedInvoices(ctx context.Context, pool *pgxpool.Pool) error {
	invoices := []struct {
		id, merchantID, customerID string
		couponID                   *string
		status                     string
	}{
		{
			"dddddddd-0000-0000-0000-000000000001",
			"11111111-1111-1111-1111-111111111111",
			"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa",
			ptr("cccccccc-0000-0000-0000-000000000001"), "pending",
		},
		{
			"dddddddd-0000-0000-0000-000000000002",
			"11111111-1111-1111-1111-111111111111",
			"bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb",
			nil, "shipped",
		},
		{
			"dddddddd-0000-0000-0000-000000000003",
			"22222222-2222-2222-2222-222222222222",
			"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa",
			ptr("cccccccc-0000-0000-0000-000000000003"), "packaged",
		},
	}

	for _, inv := range invoices {
		if _, err := pool.Exec(ctx, upsertInvoiceSQL,
			inv.id, inv.merchantID, inv.customerID, inv.couponID, inv.status,
		); err != nil {
			return errors.Wrapf(err, "upsert invoice %s", inv.id)
		}
		slog.Info("upserted invoice", slog.String("id", inv.id), slog.String("status", inv.status))
	}
	return nil
}

func ptr(s string) *string { return &s }
