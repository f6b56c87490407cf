package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// maxNumberAttempts bounds regeneration after order-number collisions.
const maxNumberAttempts = 5

// ErrNumberExhausted is returned when every generated order number collided.
// With a 36^4 suffix space per second this indicates a systemic fault, not
// bad luck.
var ErrNumberExhausted = errors.New("could not allocate a unique order number")

// Config holds order assembly policy knobs.
type Config struct {
	// RestoreCouponOnCancel releases a cancelled order's coupon usage back
	// to its allowance. Off by default: a spent coupon stays spent.
	RestoreCouponOnCancel bool
}

// Service assembles orders from priced cart lines and manages their
// lifecycle.
type Service struct {
	orders     Repository
	coupons    coupon.Repository
	categories coupon.CategoryChecker
	cfg        Config
	now        func() time.Time
}

// NewService creates an order Service.
func NewService(orders Repository, coupons coupon.Repository, categories coupon.CategoryChecker, cfg Config) *Service {
	return &Service{
		orders:     orders,
		coupons:    coupons,
		categories: categories,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Create converts priced cart lines into a persisted order.
//
// The coupon code is fire-and-forget: an unknown or ineligible code yields
// zero discount rather than an error, because the caller is expected to have
// pre-checked the code and surfaced problems before checkout. Eligibility is
// still re-evaluated here against the current total so a stale pre-check can
// never produce an unearned discount.
//
// The store used for store-scoped coupon checks is the first line's store;
// checkout is single-store by convention.
func (s *Service) Create(ctx context.Context, memberID int64, items []cart.PricedLine, couponCode string) (*Order, error) {
	if len(items) == 0 {
		return nil, cart.ErrEmptyCart
	}

	total := decimal.Zero
	for _, line := range items {
		total = total.Add(line.Subtotal)
	}

	discount := decimal.Zero
	var couponID *int64
	if couponCode != "" {
		c, err := s.applyCoupon(ctx, couponCode, total, items)
		if err != nil {
			return nil, err
		}
		if c != nil {
			discount = c.Discount(total)
			couponID = &c.ID
		}
	}

	orderItems := make([]Item, len(items))
	for i, line := range items {
		orderItems[i] = Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
			Subtotal:  line.Subtotal,
		}
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		o := &Order{
			MemberID:       memberID,
			OrderNumber:    GenerateNumber(s.now()),
			TotalAmount:    total,
			DiscountAmount: discount,
			FinalAmount:    total.Sub(discount),
			CouponID:       couponID,
			Status:         StatusPending,
		}

		err := s.orders.Create(ctx, o, orderItems)
		switch {
		case err == nil:
			return o, nil
		case errors.Is(err, ErrNumberTaken):
			continue
		case errors.Is(err, coupon.ErrUsageLimitReached) && couponID != nil:
			// The coupon's allowance ran out between validation and commit.
			// Same fire-and-forget semantics as a failed pre-check: place
			// the order without the discount.
			discount = decimal.Zero
			couponID = nil
			continue
		default:
			return nil, errors.Wrap(err, "create order")
		}
	}

	return nil, ErrNumberExhausted
}

// applyCoupon looks up and re-validates the coupon for the current totals.
// It returns nil (no error) when the code is unknown or ineligible.
func (s *Service) applyCoupon(ctx context.Context, code string, total decimal.Decimal, items []cart.PricedLine) (*coupon.Coupon, error) {
	c, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	productIDs := make([]int64, len(items))
	for i, line := range items {
		productIDs[i] = line.ProductID
	}
	oc := coupon.OrderContext{
		Total:      total,
		ProductIDs: productIDs,
		StoreID:    items[0].StoreID,
	}

	if err := c.Check(ctx, oc, s.now(), s.categories); err != nil {
		if isInfraError(err) {
			return nil, err
		}
		return nil, nil
	}
	return c, nil
}

// isInfraError distinguishes storage faults from eligibility failures inside
// a coupon check. Eligibility failures are swallowed; faults are not.
func isInfraError(err error) bool {
	var minErr *coupon.MinPurchaseError
	return !(errors.Is(err, coupon.ErrNotYetActive) ||
		errors.Is(err, coupon.ErrExpired) ||
		errors.Is(err, coupon.ErrUsageLimitReached) ||
		errors.Is(err, coupon.ErrStoreMismatch) ||
		errors.Is(err, coupon.ErrCategoryMismatch) ||
		errors.As(err, &minErr))
}

// Cancel cancels a member's own order while it is still pending. When the
// restore policy is enabled, a consumed coupon use is released in the same
// transaction.
func (s *Service) Cancel(ctx context.Context, orderID, memberID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.MemberID != memberID {
		return nil, ErrNotFound
	}
	if o.Status != StatusPending {
		return nil, ErrNotCancellable
	}

	var release *int64
	if s.cfg.RestoreCouponOnCancel {
		release = o.CouponID
	}

	if err := s.orders.UpdateStatus(ctx, o.ID, StatusPending, StatusCancelled, release); err != nil {
		return nil, err
	}
	o.Status = StatusCancelled
	return o, nil
}

// UpdateStatus moves an order to the next lifecycle state on behalf of a
// store owner or admin.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, errors.Wrapf(ErrInvalidTransition, "unknown status %q", next)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, next)
	}

	var release *int64
	if next == StatusCancelled && s.cfg.RestoreCouponOnCancel {
		release = o.CouponID
	}

	if err := s.orders.UpdateStatus(ctx, o.ID, o.Status, next, release); err != nil {
		return nil, err
	}
	o.Status = next
	return o, nil
}

// Get returns an order by id.
func (s *Service) Get(ctx context.Context, orderID int64) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// GetForMember returns an order by id, hiding orders owned by other members.
func (s *Service) GetForMember(ctx context.Context, orderID, memberID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.MemberID != memberID {
		return nil, ErrNotFound
	}
	return o, nil
}

// Items returns the frozen line items of an order.
func (s *Service) Items(ctx context.Context, orderID int64) ([]Item, error) {
	return s.orders.ListItems(ctx, orderID)
}

// ListByMember returns one page of a member's orders, newest first, along
// with the total count.
func (s *Service) ListByMember(ctx context.Context, memberID int64, page, perPage int) ([]Order, int, error) {
	return s.orders.ListByMember(ctx, memberID, page, perPage)
}

// ListByStore returns one page of orders containing a store's products.
func (s *Service) ListByStore(ctx context.Context, storeID int64, page, perPage int) ([]Order, int, error) {
	return s.orders.ListByStore(ctx, storeID, page, perPage)
}

// ListAll returns one page of all orders.
func (s *Service) ListAll(ctx context.Context, page, perPage int) ([]Order, int, error) {
	return s.orders.ListAll(ctx, page, perPage)
}
