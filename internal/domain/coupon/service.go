package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidRule is returned when a coupon is created or updated with an
// unsupported discount type or a non-positive value.
var ErrInvalidRule = errors.New("invalid coupon rule")

// CheckResult is the outcome of a pre-checkout coupon check, shaped for
// direct display: an ineligible coupon is a result, not an error.
type CheckResult struct {
	Valid    bool
	Reason   string
	Discount decimal.Decimal
	Final    decimal.Decimal
}

// Service exposes coupon management and pre-checkout validation.
type Service struct {
	coupons    Repository
	categories CategoryChecker
	now        func() time.Time
}

// NewService creates a coupon Service.
func NewService(coupons Repository, categories CategoryChecker) *Service {
	return &Service{coupons: coupons, categories: categories, now: time.Now}
}

// CheckCode validates a coupon code against the given order context and
// computes the discount it would yield. Unknown codes and failed eligibility
// rules come back as a CheckResult with Valid=false and a human-readable
// reason; only storage failures are returned as errors.
func (s *Service) CheckCode(ctx context.Context, code string, total decimal.Decimal, productIDs []int64, storeID int64) (*CheckResult, error) {
	c, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &CheckResult{Valid: false, Reason: ErrNotFound.Error()}, nil
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	oc := OrderContext{Total: total, ProductIDs: productIDs, StoreID: storeID}
	if err := c.Check(ctx, oc, s.now(), s.categories); err != nil {
		if isEligibilityError(err) {
			return &CheckResult{Valid: false, Reason: err.Error()}, nil
		}
		return nil, err
	}

	discount := c.Discount(total)

	return &CheckResult{
		Valid:    true,
		Reason:   "coupon is valid",
		Discount: discount,
		Final:    total.Sub(discount),
	}, nil
}

// isEligibilityError reports whether err is one of the rule failures that
// should be shown to the user rather than treated as a system fault.
func isEligibilityError(err error) bool {
	var minErr *MinPurchaseError
	return errors.Is(err, ErrNotYetActive) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrUsageLimitReached) ||
		errors.Is(err, ErrStoreMismatch) ||
		errors.Is(err, ErrCategoryMismatch) ||
		errors.As(err, &minErr)
}

// Create validates the rule and persists a new coupon. Missing validity
// bounds get defaults: active immediately, expiring at the end of next year.
func (s *Service) Create(ctx context.Context, c *Coupon) error {
	if c.DiscountType != DiscountPercentage && c.DiscountType != DiscountFixed {
		return errors.Wrapf(ErrInvalidRule, "discount type %q", c.DiscountType)
	}
	if !c.Value.IsPositive() {
		return errors.Wrap(ErrInvalidRule, "discount value must be positive")
	}
	if c.Scope == "" {
		c.Scope = ScopeAll
	}
	if c.Scope != ScopeAll && c.ScopeID == nil {
		return errors.Wrapf(ErrInvalidRule, "scope %q requires a target id", c.Scope)
	}

	now := s.now()
	if c.ValidFrom.IsZero() {
		c.ValidFrom = now
	}
	if c.ValidTo.IsZero() {
		c.ValidTo = time.Date(now.Year()+1, time.December, 31, 23, 59, 59, 0, now.Location())
	}

	return s.coupons.Create(ctx, c)
}

// Update applies a partial update to an existing coupon.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) error {
	if patch.IsZero() {
		return nil
	}
	if patch.DiscountType != nil &&
		*patch.DiscountType != DiscountPercentage && *patch.DiscountType != DiscountFixed {
		return errors.Wrapf(ErrInvalidRule, "discount type %q", *patch.DiscountType)
	}
	if patch.Value != nil && !patch.Value.IsPositive() {
		return errors.Wrap(ErrInvalidRule, "discount value must be positive")
	}
	return s.coupons.Update(ctx, id, patch)
}

// Delete removes a coupon.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.coupons.Delete(ctx, id)
}

// GetByID returns a coupon by id.
func (s *Service) GetByID(ctx context.Context, id int64) (*Coupon, error) {
	return s.coupons.GetByID(ctx, id)
}

// ListByCreator returns coupons issued by one admin or store, newest first.
func (s *Service) ListByCreator(ctx context.Context, creatorType CreatorType, creatorID int64) ([]Coupon, error) {
	return s.coupons.ListByCreator(ctx, creatorType, creatorID)
}

// ListAll returns every coupon, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Coupon, error) {
	return s.coupons.ListAll(ctx)
}
