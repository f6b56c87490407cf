package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_type, discount_value, min_purchase, max_discount,
		valid_from, valid_to, usage_limit, used_count, created_by_type, created_by_id,
		applicable_to, applicable_id, created_at`

	createCouponSQL = `INSERT INTO coupons
		(code, discount_type, discount_value, min_purchase, max_discount,
		 valid_from, valid_to, usage_limit, created_by_type, created_by_id,
		 applicable_to, applicable_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	listCouponsByCreatorSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE created_by_type = $1 AND created_by_id = $2
		ORDER BY created_at DESC`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create inserts a coupon and fills in its id and creation time.
// Returns coupon.ErrCodeTaken when the code is already in use.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	err := r.pool.QueryRow(ctx, createCouponSQL,
		c.Code, c.DiscountType, c.Value, c.MinPurchase, c.MaxDiscount,
		c.ValidFrom, c.ValidTo, c.UsageLimit, c.CreatedByType, c.CreatedByID,
		c.Scope, c.ScopeID,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// GetByCode looks up a coupon by its exact code.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// GetByID looks up a coupon by id.
func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %d: %w", id, err)
	}
	return &c, nil
}

// ListByCreator returns coupons issued by one admin or store, newest first.
func (r *CouponRepository) ListByCreator(ctx context.Context, creatorType coupon.CreatorType, creatorID int64) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsByCreatorSQL, creatorType, creatorID)
	if err != nil {
		return nil, fmt.Errorf("listing coupons for %s %d: %w", creatorType, creatorID, err)
	}
	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons for %s %d: %w", creatorType, creatorID, err)
	}
	return coupons, nil
}

// ListAll returns every coupon, newest first.
func (r *CouponRepository) ListAll(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, nil
}

// Update applies a partial update built from the patch's non-nil fields.
// Returns coupon.ErrCodeTaken when renaming to an existing code and
// coupon.ErrNotFound when the coupon does not exist.
func (r *CouponRepository) Update(ctx context.Context, id int64, patch coupon.Patch) error {
	b := newPatchBuilder()
	patchSet(b, "code", patch.Code)
	patchSet(b, "discount_type", patch.DiscountType)
	patchSet(b, "discount_value", patch.Value)
	patchSet(b, "min_purchase", patch.MinPurchase)
	patchSet(b, "max_discount", patch.MaxDiscount)
	patchSet(b, "valid_from", patch.ValidFrom)
	patchSet(b, "valid_to", patch.ValidTo)
	patchSet(b, "usage_limit", patch.UsageLimit)
	if b.empty() {
		return nil
	}

	tag, err := r.pool.Exec(ctx, b.updateSQL("coupons"), b.args(id)...)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("updating coupon %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.MinPurchase, &c.MaxDiscount,
		&c.ValidFrom, &c.ValidTo, &c.UsageLimit, &c.UsedCount,
		&c.CreatedByType, &c.CreatedByID, &c.Scope, &c.ScopeID, &c.CreatedAt,
	)
	return c, err
}
