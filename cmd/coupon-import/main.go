// Command coupon-import bulk-loads coupon codes for one merchant from
// gzip-compressed code list files, one code per line. Imported coupons are
// created inactive so the merchant's active-coupon limit is never touched;
// codes are activated individually through the API afterwards.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/merchant-coupons/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minCodeLen    = 3
	maxCodeLen    = 64
)

func main() {
	var (
		databaseURL   string
		merchantID    string
		discountType  string
		discountValue string
		namePrefix    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&merchantID, "merchant", "", "merchant ID to attach imported coupons to")
	flag.StringVar(&discountType, "discount-type", "percent_off", "discount type for imported coupons (percent_off or dollar_off)")
	flag.StringVar(&discountValue, "discount-value", "10", "discount value for imported coupons")
	flag.StringVar(&namePrefix, "name-prefix", "Imported coupon", "name prefix for imported coupons")
	flag.Parse()

	files := flag.Args()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if merchantID == "" {
		slog.Error("merchant ID is required: set --merchant")
		os.Exit(1)
	}
	if len(files) == 0 {
		slog.Error("at least one code file is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, merchantID, discountType, discountValue, namePrefix, files); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL, merchantID, discountType, discountValue, namePrefix string, files []string) error {
	value, err := decimal.NewFromString(discountValue)
	if err != nil {
		return errors.Wrap(err, "parse discount value")
	}
	if !value.IsPositive() {
		return errors.New("discount value must be greater than 0")
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("collecting codes", slog.Int("files", len(files)))

	codes, err := collectCodes(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}

	slog.Info("codes collected", slog.Int("count", len(codes)))

	if len(codes) == 0 {
		slog.Info("no codes to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writeCoupons(ctx, pool, merchantID, discountType, value, namePrefix, codes)
}

// collectCodes streams every file concurrently and deduplicates codes across
// files with a shared bloom filter. A false positive drops the code from the
// import; the loss rate is bounded by bloomFPR.
func collectCodes(ctx context.Context, files []string) ([]string, error) {
	var (
		mu     sync.Mutex
		filter = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		codes  []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			var scanned uint64

			err := streamGzFile(ctx, path, func(code string) {
				if len(code) < minCodeLen || len(code) > maxCodeLen {
					return
				}
				scanned++
				if scanned%progressEvery == 0 {
					slog.Info("scan progress", slog.Int("file", i+1), slog.Uint64("codes", scanned))
				}

				mu.Lock()
				if !filter.TestAndAddString(code) {
					codes = append(codes, code)
				}
				mu.Unlock()
			})
			if err != nil {
				return errors.Wrapf(err, "scan file %d", i+1)
			}

			slog.Info("scan complete", slog.Int("file", i+1), slog.Uint64("total_codes", scanned))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return codes, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each trimmed line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

const insertImportedCouponSQL = `
INSERT INTO coupons (id, merchant_id, name, code, discount_type, discount_value, active)
VALUES ($1, $2, $3, $4, $5, $6, FALSE)
ON CONFLICT (code) DO NOTHING`

// writeCoupons inserts every collected code as an inactive coupon. Codes
// already taken anywhere in the system are skipped.
func writeCoupons(ctx context.Context, pool *pgxpool.Pool, merchantID, discountType string, value decimal.Decimal, namePrefix string, codes []string) error {
	slog.Info("writing coupons to database", slog.Int("count", len(codes)))

	var written int64
	for i, code := range codes {
		tag, err := pool.Exec(ctx, insertImportedCouponSQL,
			uuid.New().String(), merchantID, namePrefix+" "+code, code, discountType, value,
		)
		if err != nil {
			return errors.Wrapf(err, "insert coupon %s", code)
		}
		written += tag.RowsAffected()

		if (i+1)%10_000 == 0 || i+1 == len(codes) {
			slog.Info("write progress",
				slog.Int("processed", i+1),
				slog.Int64("written", written),
				slog.Int("total", len(codes)),
			)
		}
	}

	slog.Info("write complete", slog.Int64("written", written), slog.Int("skipped", len(codes)-int(written)))
	return nil
}
