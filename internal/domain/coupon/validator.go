package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// OrderContext carries the order-side inputs for eligibility checks.
//
// StoreID is the store of the first cart line; checkout is single-store so
// all lines share it. A zero StoreID means the store is unknown, which fails
// store-scoped coupons.
type OrderContext struct {
	Total      decimal.Decimal
	ProductIDs []int64
	StoreID    int64
}

// Check evaluates the coupon's eligibility rules against an order context.
// It returns nil when the coupon applies, or the first failing rule's error.
//
// The rules run in a fixed order so the user always sees the same reason for
// a coupon that fails several of them: validity window, usage allowance,
// minimum purchase, store scope, category scope.
func (c *Coupon) Check(ctx context.Context, oc OrderContext, now time.Time, categories CategoryChecker) error {
	if now.Before(c.ValidFrom) {
		return ErrNotYetActive
	}
	if now.After(c.ValidTo) {
		return ErrExpired
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrUsageLimitReached
	}

	if c.MinPurchase.IsPositive() && oc.Total.LessThan(c.MinPurchase) {
		return &MinPurchaseError{Min: c.MinPurchase}
	}

	if c.Scope == ScopeStore && (c.ScopeID == nil || *c.ScopeID != oc.StoreID) {
		return ErrStoreMismatch
	}

	if c.Scope == ScopeCategory && len(oc.ProductIDs) > 0 {
		if c.ScopeID == nil {
			return ErrCategoryMismatch
		}
		ok, err := categories.AnyInCategory(ctx, oc.ProductIDs, *c.ScopeID)
		if err != nil {
			return errors.Wrap(err, "check category scope")
		}
		if !ok {
			return ErrCategoryMismatch
		}
	}

	return nil
}
