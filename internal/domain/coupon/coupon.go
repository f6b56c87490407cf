// Package coupon implements coupon records, eligibility validation, and
// discount calculation for the checkout flow.
package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the order
	// total, optionally capped at MaxDiscount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the total.
	DiscountFixed DiscountType = "fixed"
)

// CreatorType identifies who issued a coupon.
type CreatorType string

const (
	CreatorAdmin CreatorType = "admin"
	CreatorStore CreatorType = "store"
)

// Scope restricts where a coupon applies.
type Scope string

const (
	// ScopeAll applies to every store and product.
	ScopeAll Scope = "all"
	// ScopeStore applies only to orders from one store (ScopeID = store id).
	ScopeStore Scope = "store"
	// ScopeCategory applies only when the cart contains at least one product
	// from one category (ScopeID = category id).
	ScopeCategory Scope = "category"
)

var (
	// ErrNotFound is returned when a coupon code or id does not exist.
	ErrNotFound = errors.New("coupon not found")
	// ErrCodeTaken is returned when creating or renaming a coupon to a code
	// that already exists.
	ErrCodeTaken = errors.New("coupon code already in use")

	// ErrNotYetActive is returned when the coupon's validity window has not
	// opened yet.
	ErrNotYetActive = errors.New("coupon is not yet active")
	// ErrExpired is returned when the coupon's validity window has closed.
	ErrExpired = errors.New("coupon has expired")
	// ErrUsageLimitReached is returned when the coupon has exhausted its
	// allowed uses.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrStoreMismatch is returned when a store-scoped coupon is applied to
	// an order from a different store.
	ErrStoreMismatch = errors.New("coupon is not applicable to this store")
	// ErrCategoryMismatch is returned when a category-scoped coupon is
	// applied to a cart with no products from that category.
	ErrCategoryMismatch = errors.New("coupon is not applicable to this product category")
)

// MinPurchaseError is returned when the order total is below the coupon's
// minimum purchase amount. It carries the required minimum so callers can
// show it to the user.
type MinPurchaseError struct {
	Min decimal.Decimal
}

func (e *MinPurchaseError) Error() string {
	return fmt.Sprintf("order total must be at least $%s to use this coupon", e.Min.StringFixed(0))
}

// Coupon is a discount voucher issued by an admin or a store owner.
//
// UsedCount counts toward UsageLimit; a nil UsageLimit means unlimited uses.
// UsedCount is only ever incremented inside the order-creation transaction.
type Coupon struct {
	ID            int64
	Code          string
	DiscountType  DiscountType
	Value         decimal.Decimal
	MinPurchase   decimal.Decimal
	MaxDiscount   *decimal.Decimal
	ValidFrom     time.Time
	ValidTo       time.Time
	UsageLimit    *int
	UsedCount     int
	CreatedByType CreatorType
	CreatedByID   int64
	Scope         Scope
	ScopeID       *int64
	CreatedAt     time.Time
}

// Patch describes a partial coupon update. Only non-nil fields are written;
// each field maps to exactly one column setter in storage.
type Patch struct {
	Code         *string
	DiscountType *DiscountType
	Value        *decimal.Decimal
	MinPurchase  *decimal.Decimal
	MaxDiscount  *decimal.Decimal
	ValidFrom    *time.Time
	ValidTo      *time.Time
	UsageLimit   *int
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return p.Code == nil && p.DiscountType == nil && p.Value == nil &&
		p.MinPurchase == nil && p.MaxDiscount == nil &&
		p.ValidFrom == nil && p.ValidTo == nil && p.UsageLimit == nil
}

// Repository defines persistence operations for coupons.
//
// Consuming a coupon's usage allowance is deliberately absent here: it
// happens inside the order-creation transaction (see the order package) as a
// conditional atomic increment, never as a separate read-then-write.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id int64) (*Coupon, error)
	ListByCreator(ctx context.Context, creatorType CreatorType, creatorID int64) ([]Coupon, error)
	ListAll(ctx context.Context) ([]Coupon, error)
	Update(ctx context.Context, id int64, patch Patch) error
	Delete(ctx context.Context, id int64) error
}

// CategoryChecker reports whether any of the given products belong to a
// category. Satisfied by the catalog repository.
type CategoryChecker interface {
	AnyInCategory(ctx context.Context, productIDs []int64, categoryID int64) (bool, error)
}
