// Package order implements order assembly: converting a priced cart into an
// immutable order with consistent totals, consuming coupon usage, and
// managing the order status lifecycle.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed next states per state. Delivered and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status machine allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

var (
	// ErrNotFound is returned when a requested order does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when a status change is not allowed
	// by the lifecycle state machine.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrNotCancellable is returned when a member cancels an order that is
	// no longer pending.
	ErrNotCancellable = errors.New("only pending orders can be cancelled")
	// ErrStatusConflict is returned when a guarded status update matched no
	// row, meaning the order changed state concurrently.
	ErrStatusConflict = errors.New("order status changed concurrently")
	// ErrNumberTaken is returned by storage when the generated order number
	// collided with an existing one; the assembler regenerates and retries.
	ErrNumberTaken = errors.New("order number already exists")
)

// Order is an immutable record of a placed order. Only Status changes after
// creation; amounts and the coupon reference are frozen.
type Order struct {
	ID             int64
	MemberID       int64
	OrderNumber    string
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	CouponID       *int64
	Status         Status
	CreatedAt      time.Time
}

// Item is a frozen snapshot of one ordered product: the unit price and
// subtotal at order time, immune to later product changes.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
	Subtotal  decimal.Decimal
}

// Repository defines persistence operations for orders.
//
// Create must apply the whole order as one transaction: when o.CouponID is
// set, a conditional atomic increment of that coupon's used_count (failing
// with coupon.ErrUsageLimitReached when the allowance is exhausted), then
// the order row, its items, and the deletion of the member's cart lines.
// A failure at any step rolls back every step.
type Repository interface {
	Create(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByMember(ctx context.Context, memberID int64, page, perPage int) ([]Order, int, error)
	ListByStore(ctx context.Context, storeID int64, page, perPage int) ([]Order, int, error)
	ListAll(ctx context.Context, page, perPage int) ([]Order, int, error)
	ListItems(ctx context.Context, orderID int64) ([]Item, error)

	// UpdateStatus moves the order from one status to another with a guarded
	// update, returning ErrStatusConflict when the order is no longer in the
	// from status. When releaseCouponID is set the coupon's used_count is
	// decremented in the same transaction.
	UpdateStatus(ctx context.Context, id int64, from, to Status, releaseCouponID *int64) error
}
