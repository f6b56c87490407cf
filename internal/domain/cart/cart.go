// Package cart implements the per-member shopping cart and its priced
// aggregation into a checkout summary.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart is returned when checkout is attempted on an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity is returned when adding a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// OutOfStockError is returned when the requested quantity exceeds the
// product's remaining stock.
type OutOfStockError struct {
	ProductID int64
	Stock     int
}

func (e *OutOfStockError) Error() string {
	if e.Stock == 0 {
		return "product is out of stock"
	}
	return errors.Errorf("insufficient stock: %d remaining", e.Stock).Error()
}

// PricedLine is one cart line joined with its product at current prices.
// It is derived on every aggregation and never persisted: the subtotal is
// always recomputed from the product's effective price, not trusted from
// whatever the price was when the line was added.
type PricedLine struct {
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	ListPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
	StoreID     int64
	StoreName   string
	ImageURL    string
	Stock       int
	AddedAt     time.Time
}

// Summary is the aggregated cart: lines ordered most-recently-added first,
// with quantity and amount totals.
type Summary struct {
	Items       []PricedLine
	TotalItems  int
	TotalAmount decimal.Decimal
}

// ProductIDs returns the product ids of all lines, in summary order.
func (s *Summary) ProductIDs() []int64 {
	ids := make([]int64, len(s.Items))
	for i, it := range s.Items {
		ids[i] = it.ProductID
	}
	return ids
}

// Repository defines persistence operations for cart lines.
//
// ListPriced joins lines against products and stores, silently dropping
// lines whose product or store is inactive; those lines stay in storage but
// are excluded from totals and display.
type Repository interface {
	Upsert(ctx context.Context, memberID, productID int64, quantity int) error
	SetQuantity(ctx context.Context, memberID, productID int64, quantity int) error
	Remove(ctx context.Context, memberID, productID int64) error
	Clear(ctx context.Context, memberID int64) error
	ListPriced(ctx context.Context, memberID int64) ([]PricedLine, error)
}
