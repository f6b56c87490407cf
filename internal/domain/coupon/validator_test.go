package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCategoryChecker struct {
	match bool
	err   error
}

func (m *mockCategoryChecker) AnyInCategory(_ context.Context, _ []int64, _ int64) (bool, error) {
	return m.match, m.err
}

func TestCouponCheck(t *testing.T) {
	fixedNow := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-24 * time.Hour)
	future := fixedNow.Add(24 * time.Hour)

	storeID := int64(7)
	categoryID := int64(3)
	limit5 := 5

	base := Coupon{
		Code:         "TEST",
		DiscountType: DiscountPercentage,
		Value:        dec("10"),
		ValidFrom:    past,
		ValidTo:      future,
		Scope:        ScopeAll,
	}

	tests := []struct {
		name       string
		mutate     func(c *Coupon)
		oc         OrderContext
		categories *mockCategoryChecker
		wantErr    error
	}{
		{
			name: "eligible coupon passes",
			oc:   OrderContext{Total: dec("100"), StoreID: storeID},
		},
		{
			name: "not yet active",
			mutate: func(c *Coupon) {
				c.ValidFrom = future
				c.ValidTo = future.Add(24 * time.Hour)
			},
			oc:      OrderContext{Total: dec("100")},
			wantErr: ErrNotYetActive,
		},
		{
			name: "expired",
			mutate: func(c *Coupon) {
				c.ValidFrom = past.Add(-24 * time.Hour)
				c.ValidTo = past
			},
			oc:      OrderContext{Total: dec("100")},
			wantErr: ErrExpired,
		},
		{
			name: "expired wins over below minimum purchase",
			mutate: func(c *Coupon) {
				c.ValidTo = past
				c.MinPurchase = dec("500")
			},
			oc:      OrderContext{Total: dec("100")},
			wantErr: ErrExpired,
		},
		{
			name: "usage limit reached",
			mutate: func(c *Coupon) {
				c.UsageLimit = &limit5
				c.UsedCount = 5
			},
			oc:      OrderContext{Total: dec("100")},
			wantErr: ErrUsageLimitReached,
		},
		{
			name: "usage under limit passes",
			mutate: func(c *Coupon) {
				c.UsageLimit = &limit5
				c.UsedCount = 4
			},
			oc: OrderContext{Total: dec("100")},
		},
		{
			name: "nil usage limit is unlimited",
			mutate: func(c *Coupon) {
				c.UsedCount = 99999
			},
			oc: OrderContext{Total: dec("100")},
		},
		{
			name: "store scoped coupon on matching store passes",
			mutate: func(c *Coupon) {
				c.Scope = ScopeStore
				c.ScopeID = &storeID
			},
			oc: OrderContext{Total: dec("100"), StoreID: storeID},
		},
		{
			name: "store scoped coupon on other store fails",
			mutate: func(c *Coupon) {
				c.Scope = ScopeStore
				c.ScopeID = &storeID
			},
			oc:      OrderContext{Total: dec("100"), StoreID: 8},
			wantErr: ErrStoreMismatch,
		},
		{
			name: "category scoped coupon with matching product passes",
			mutate: func(c *Coupon) {
				c.Scope = ScopeCategory
				c.ScopeID = &categoryID
			},
			oc:         OrderContext{Total: dec("100"), ProductIDs: []int64{1, 2}},
			categories: &mockCategoryChecker{match: true},
		},
		{
			name: "category scoped coupon with no matching product fails",
			mutate: func(c *Coupon) {
				c.Scope = ScopeCategory
				c.ScopeID = &categoryID
			},
			oc:         OrderContext{Total: dec("100"), ProductIDs: []int64{1, 2}},
			categories: &mockCategoryChecker{match: false},
			wantErr:    ErrCategoryMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			categories := tt.categories
			if categories == nil {
				categories = &mockCategoryChecker{}
			}

			err := c.Check(context.Background(), tt.oc, fixedNow, categories)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCouponCheck_MinPurchaseCarriesMinimum(t *testing.T) {
	fixedNow := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	c := Coupon{
		Code:         "MIN500",
		DiscountType: DiscountFixed,
		Value:        dec("50"),
		MinPurchase:  dec("500"),
		ValidFrom:    fixedNow.Add(-time.Hour),
		ValidTo:      fixedNow.Add(time.Hour),
		Scope:        ScopeAll,
	}

	err := c.Check(context.Background(), OrderContext{Total: dec("100")}, fixedNow, &mockCategoryChecker{})

	var minErr *MinPurchaseError
	require.ErrorAs(t, err, &minErr)
	assert.True(t, dec("500").Equal(minErr.Min))
	assert.Contains(t, minErr.Error(), "$500")
}

func TestCouponCheck_CategoryCheckerError(t *testing.T) {
	fixedNow := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	categoryID := int64(3)
	c := Coupon{
		Code:         "CAT",
		DiscountType: DiscountPercentage,
		Value:        dec("10"),
		ValidFrom:    fixedNow.Add(-time.Hour),
		ValidTo:      fixedNow.Add(time.Hour),
		Scope:        ScopeCategory,
		ScopeID:      &categoryID,
	}
	checker := &mockCategoryChecker{err: errors.New("db down")}

	err := c.Check(context.Background(), OrderContext{Total: dec("100"), ProductIDs: []int64{1}}, fixedNow, checker)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCategoryMismatch)
}
