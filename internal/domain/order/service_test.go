package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// --- Mock implementations ---

type createCall struct {
	order *Order
	items []Item
}

type mockOrderRepo struct {
	orders       map[int64]*Order
	creates      []createCall
	createErrs   []error // consumed per call; nil slice means always succeed
	statusFrom   Status
	statusTo     Status
	releasedID   *int64
	statusErr    error
	statusCalled bool
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[int64]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order, items []Item) error {
	m.creates = append(m.creates, createCall{order: o, items: items})
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	o.ID = int64(len(m.creates))
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByMember(_ context.Context, _ int64, _, _ int) ([]Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) ListByStore(_ context.Context, _ int64, _, _ int) ([]Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context, _, _ int) ([]Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) ListItems(_ context.Context, _ int64) ([]Item, error) {
	return nil, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id int64, from, to Status, releaseCouponID *int64) error {
	m.statusCalled = true
	m.statusFrom = from
	m.statusTo = to
	m.releasedID = releaseCouponID
	if m.statusErr != nil {
		return m.statusErr
	}
	if o, ok := m.orders[id]; ok {
		o.Status = to
	}
	return nil
}

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
	getErr error
}

func (m *mockCouponRepo) Create(_ context.Context, _ *coupon.Coupon) error { return nil }

func (m *mockCouponRepo) GetByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepo) GetByID(_ context.Context, _ int64) (*coupon.Coupon, error) {
	return nil, coupon.ErrNotFound
}

func (m *mockCouponRepo) ListByCreator(_ context.Context, _ coupon.CreatorType, _ int64) ([]coupon.Coupon, error) {
	return nil, nil
}

func (m *mockCouponRepo) ListAll(_ context.Context) ([]coupon.Coupon, error) { return nil, nil }

func (m *mockCouponRepo) Update(_ context.Context, _ int64, _ coupon.Patch) error { return nil }

func (m *mockCouponRepo) Delete(_ context.Context, _ int64) error { return nil }

type mockCategoryChecker struct {
	match bool
	err   error
}

func (m *mockCategoryChecker) AnyInCategory(_ context.Context, _ []int64, _ int64) (bool, error) {
	return m.match, m.err
}

// --- Helpers ---

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLines() []cart.PricedLine {
	return []cart.PricedLine{
		{ProductID: 1, UnitPrice: dec("100"), Quantity: 2, Subtotal: dec("200"), StoreID: 7},
		{ProductID: 2, UnitPrice: dec("40"), Quantity: 1, Subtotal: dec("40"), StoreID: 7},
	}
}

func testCoupon(code string) *coupon.Coupon {
	return &coupon.Coupon{
		ID:           11,
		Code:         code,
		DiscountType: coupon.DiscountPercentage,
		Value:        dec("10"),
		ValidFrom:    testNow.Add(-time.Hour),
		ValidTo:      testNow.Add(time.Hour),
		Scope:        coupon.ScopeAll,
	}
}

func newTestService(orders Repository, coupons coupon.Repository, cfg Config) *Service {
	svc := NewService(orders, coupons, &mockCategoryChecker{match: true}, cfg)
	svc.now = func() time.Time { return testNow }
	return svc
}

// --- Tests ---

func TestCreate_EmptyCart(t *testing.T) {
	svc := newTestService(newMockOrderRepo(), &mockCouponRepo{}, Config{})

	_, err := svc.Create(context.Background(), 1, nil, "")
	require.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestCreate_WithoutCoupon(t *testing.T) {
	repo := newMockOrderRepo()
	svc := newTestService(repo, &mockCouponRepo{}, Config{})

	o, err := svc.Create(context.Background(), 1, testLines(), "")
	require.NoError(t, err)

	assert.True(t, dec("240").Equal(o.TotalAmount), "total %s", o.TotalAmount)
	assert.True(t, o.DiscountAmount.IsZero())
	assert.True(t, dec("240").Equal(o.FinalAmount), "final %s", o.FinalAmount)
	assert.Nil(t, o.CouponID)
	assert.Equal(t, StatusPending, o.Status)

	require.Len(t, repo.creates, 1)
	items := repo.creates[0].items
	require.Len(t, items, 2)
	assert.True(t, dec("100").Equal(items[0].Price))
	assert.True(t, dec("200").Equal(items[0].Subtotal))
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCreate_WithCoupon(t *testing.T) {
	repo := newMockOrderRepo()
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"SAVE10": testCoupon("SAVE10"),
	}}
	svc := newTestService(repo, coupons, Config{})

	o, err := svc.Create(context.Background(), 1, testLines(), "SAVE10")
	require.NoError(t, err)

	assert.True(t, dec("240").Equal(o.TotalAmount))
	assert.True(t, dec("24").Equal(o.DiscountAmount), "discount %s", o.DiscountAmount)
	assert.True(t, dec("216").Equal(o.FinalAmount), "final %s", o.FinalAmount)
	require.NotNil(t, o.CouponID)
	assert.Equal(t, int64(11), *o.CouponID)
}

func TestCreate_UnknownCouponIsIgnored(t *testing.T) {
	repo := newMockOrderRepo()
	svc := newTestService(repo, &mockCouponRepo{}, Config{})

	o, err := svc.Create(context.Background(), 1, testLines(), "NOPE")
	require.NoError(t, err)

	assert.True(t, o.DiscountAmount.IsZero())
	assert.True(t, dec("240").Equal(o.FinalAmount))
	assert.Nil(t, o.CouponID)
}

func TestCreate_IneligibleCouponIsIgnored(t *testing.T) {
	c := testCoupon("MIN500")
	c.MinPurchase = dec("500")
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{"MIN500": c}}
	svc := newTestService(newMockOrderRepo(), coupons, Config{})

	o, err := svc.Create(context.Background(), 1, testLines(), "MIN500")
	require.NoError(t, err)

	assert.True(t, o.DiscountAmount.IsZero())
	assert.Nil(t, o.CouponID)
}

func TestCreate_CouponLookupFailureIsAnError(t *testing.T) {
	coupons := &mockCouponRepo{getErr: errors.New("db down")}
	svc := newTestService(newMockOrderRepo(), coupons, Config{})

	_, err := svc.Create(context.Background(), 1, testLines(), "SAVE10")
	require.Error(t, err)
}

func TestCreate_RetriesOnNumberCollision(t *testing.T) {
	repo := newMockOrderRepo()
	repo.createErrs = []error{ErrNumberTaken, nil}
	svc := newTestService(repo, &mockCouponRepo{}, Config{})

	o, err := svc.Create(context.Background(), 1, testLines(), "")
	require.NoError(t, err)

	require.Len(t, repo.creates, 2)
	assert.NotEqual(t, repo.creates[0].order.OrderNumber, "")
	assert.True(t, dec("240").Equal(o.FinalAmount))
}

func TestCreate_NumberExhaustion(t *testing.T) {
	repo := newMockOrderRepo()
	repo.createErrs = []error{
		ErrNumberTaken, ErrNumberTaken, ErrNumberTaken, ErrNumberTaken, ErrNumberTaken,
	}
	svc := newTestService(repo, &mockCouponRepo{}, Config{})

	_, err := svc.Create(context.Background(), 1, testLines(), "")
	require.ErrorIs(t, err, ErrNumberExhausted)
}

func TestCreate_CouponExhaustedAtCommitDropsDiscount(t *testing.T) {
	repo := newMockOrderRepo()
	repo.createErrs = []error{coupon.ErrUsageLimitReached, nil}
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"SAVE10": testCoupon("SAVE10"),
	}}
	svc := newTestService(repo, coupons, Config{})

	o, err := svc.Create(context.Background(), 1, testLines(), "SAVE10")
	require.NoError(t, err)

	// First attempt carried the coupon, the retry placed the order without it.
	require.Len(t, repo.creates, 2)
	assert.NotNil(t, repo.creates[0].order.CouponID)
	assert.Nil(t, o.CouponID)
	assert.True(t, o.DiscountAmount.IsZero())
	assert.True(t, dec("240").Equal(o.FinalAmount))
}

func TestCancel(t *testing.T) {
	couponID := int64(11)

	t.Run("pending order is cancelled", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, MemberID: 5, Status: StatusPending}
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		o, err := svc.Cancel(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, StatusPending, repo.statusFrom)
		assert.Equal(t, StatusCancelled, repo.statusTo)
	})

	t.Run("other member's order is hidden", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, MemberID: 5, Status: StatusPending}
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		_, err := svc.Cancel(context.Background(), 1, 6)
		require.ErrorIs(t, err, ErrNotFound)
		assert.False(t, repo.statusCalled)
	})

	t.Run("shipped order is not cancellable", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, MemberID: 5, Status: StatusShipped}
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		_, err := svc.Cancel(context.Background(), 1, 5)
		require.ErrorIs(t, err, ErrNotCancellable)
	})

	t.Run("coupon stays spent by default", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, MemberID: 5, Status: StatusPending, CouponID: &couponID}
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		_, err := svc.Cancel(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Nil(t, repo.releasedID)
	})

	t.Run("restore policy releases the coupon", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, MemberID: 5, Status: StatusPending, CouponID: &couponID}
		svc := newTestService(repo, &mockCouponRepo{}, Config{RestoreCouponOnCancel: true})

		_, err := svc.Cancel(context.Background(), 1, 5)
		require.NoError(t, err)
		require.NotNil(t, repo.releasedID)
		assert.Equal(t, couponID, *repo.releasedID)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("allowed transition", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, MemberID: 5, Status: StatusPending}
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		o, err := svc.UpdateStatus(context.Background(), 1, StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, o.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, Status: StatusPending}
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		_, err := svc.UpdateStatus(context.Background(), 1, "archived")
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, Status: StatusDelivered}
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		_, err := svc.UpdateStatus(context.Background(), 1, StatusCancelled)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("shipped cannot go back to confirmed", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, Status: StatusShipped}
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		_, err := svc.UpdateStatus(context.Background(), 1, StatusConfirmed)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("concurrent change surfaces conflict", func(t *testing.T) {
		repo := newMockOrderRepo()
		repo.orders[1] = &Order{ID: 1, Status: StatusPending}
		repo.statusErr = ErrStatusConflict
		svc := newTestService(repo, &mockCouponRepo{}, Config{})

		_, err := svc.UpdateStatus(context.Background(), 1, StatusConfirmed)
		require.ErrorIs(t, err, ErrStatusConflict)
	})
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
