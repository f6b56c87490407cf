// Command coupon-import bulk-loads campaign coupon codes from gzipped code
// lists. A code counts as valid only when it appears in at least two of the
// provided files; validation streams each file twice using per-file bloom
// filters so the full code set never has to fit in memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

// campaign describes the discount rule stamped on every imported code.
type campaign struct {
	discountType string
	value        decimal.Decimal
	minPurchase  decimal.Decimal
	validDays    int
	usageLimit   int
}

// fileResult holds candidate codes found in a single file during pass 2.
type fileResult struct {
	candidates map[string]uint
}

func main() {
	var (
		dataDir      string
		databaseURL  string
		discountType string
		value        string
		minPurchase  string
		validDays    int
		usageLimit   int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing .gz code list files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&discountType, "discount-type", "percentage", "discount type for imported codes (percentage or fixed)")
	flag.StringVar(&value, "value", "10", "discount value for imported codes")
	flag.StringVar(&minPurchase, "min-purchase", "0", "minimum purchase amount for imported codes")
	flag.IntVar(&validDays, "valid-days", 90, "validity window in days from now")
	flag.IntVar(&usageLimit, "usage-limit", 1, "uses allowed per code (0 = unlimited)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if discountType != "percentage" && discountType != "fixed" {
		slog.Error("discount type must be percentage or fixed", slog.String("got", discountType))
		os.Exit(1)
	}

	val, err := decimal.NewFromString(value)
	if err != nil || !val.IsPositive() {
		slog.Error("discount value must be a positive decimal", slog.String("got", value))
		os.Exit(1)
	}
	minp, err := decimal.NewFromString(minPurchase)
	if err != nil || minp.IsNegative() {
		slog.Error("min purchase must be a non-negative decimal", slog.String("got", minPurchase))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c := campaign{
		discountType: discountType,
		value:        val,
		minPurchase:  minp,
		validDays:    validDays,
		usageLimit:   usageLimit,
	}
	if err := run(ctx, dataDir, databaseURL, c); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, c campaign) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list code files")
	}
	if len(files) < 2 {
		return errors.Errorf("need at least 2 code files in %s, found %d", dataDir, len(files))
	}
	if len(files) > bits.UintSize {
		return errors.Errorf("too many code files: %d", len(files))
	}

	// Pass 1: build one bloom filter per file, concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: find candidate codes appearing in 2+ files.
	slog.Info("pass 2: finding candidate codes")

	validCodes, err := findValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid codes")
	}

	slog.Info("valid codes found", slog.Int("count", len(validCodes)))

	if len(validCodes) == 0 {
		slog.Info("no valid codes to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeCoupons(ctx, pool, validCodes, c); err != nil {
		return errors.Wrap(err, "write coupons to database")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) >= minCodeLen && len(code) <= maxCodeLen {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("file", idx+1),
						slog.Uint64("codes", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findValidCodes re-streams each file and checks codes against OTHER files'
// bloom filters. A code is valid if it appears in 2 or more files.
func findValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge bitmasks from all files.
	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	// Keep codes appearing in 2+ files.
	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			valid = append(valid, code)
		}
	}

	return valid, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}

			// Check if this code appears in any OTHER file's bloom filter.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(code) {
					candidates[code] |= fileBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
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
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

const upsertCampaignCouponSQL = `INSERT INTO coupons
	(code, discount_type, discount_value, min_purchase,
	 valid_from, valid_to, usage_limit, created_by_type, created_by_id, applicable_to)
	VALUES ($1, $2, $3, $4, $5, $6, $7, 'admin', 1, 'all')
	ON CONFLICT (code) DO UPDATE SET
		discount_type = EXCLUDED.discount_type,
		discount_value = EXCLUDED.discount_value,
		min_purchase = EXCLUDED.min_purchase,
		valid_from = EXCLUDED.valid_from,
		valid_to = EXCLUDED.valid_to,
		usage_limit = EXCLUDED.usage_limit`

// writeCoupons upserts all valid codes as campaign coupons.
func writeCoupons(ctx context.Context, pool *pgxpool.Pool, codes []string, c campaign) error {
	slog.Info("writing coupons to database", slog.Int("count", len(codes)))

	now := time.Now()
	validTo := now.AddDate(0, 0, c.validDays)

	var usageLimit *int
	if c.usageLimit > 0 {
		usageLimit = &c.usageLimit
	}

	for i, code := range codes {
		_, err := pool.Exec(ctx, upsertCampaignCouponSQL,
			code, c.discountType, c.value, c.minPurchase, now, validTo, usageLimit,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", code)
		}
		if (i+1)%10_000 == 0 {
			slog.Info("write progress", slog.Int("written", i+1))
		}
	}

	return nil
}
