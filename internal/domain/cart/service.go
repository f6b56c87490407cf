package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// ProductGetter is the slice of the catalog the cart needs.
type ProductGetter interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// Service implements cart mutations and summary aggregation.
type Service struct {
	carts    Repository
	products ProductGetter
}

// NewService creates a cart Service.
func NewService(carts Repository, products ProductGetter) *Service {
	return &Service{carts: carts, products: products}
}

// AddItem adds a product to the member's cart, accumulating quantity when
// the line already exists. Stock is checked here, at add time only; order
// creation does not re-check it.
func (s *Service) AddItem(ctx context.Context, memberID, productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return errors.Wrap(err, "get product")
	}
	if p.Status != catalog.StatusActive {
		return catalog.ErrProductNotFound
	}
	if !p.InStock() {
		return &OutOfStockError{ProductID: productID, Stock: 0}
	}
	if quantity > p.Stock {
		return &OutOfStockError{ProductID: productID, Stock: p.Stock}
	}

	if err := s.carts.Upsert(ctx, memberID, productID, quantity); err != nil {
		return errors.Wrap(err, "upsert cart line")
	}
	return nil
}

// UpdateQuantity sets the quantity of an existing cart line. A quantity of
// zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, memberID, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, memberID, productID)
	}
	if err := s.carts.SetQuantity(ctx, memberID, productID, quantity); err != nil {
		return errors.Wrap(err, "set cart quantity")
	}
	return nil
}

// RemoveItem deletes one product's line from the member's cart.
func (s *Service) RemoveItem(ctx context.Context, memberID, productID int64) error {
	if err := s.carts.Remove(ctx, memberID, productID); err != nil {
		return errors.Wrap(err, "remove cart line")
	}
	return nil
}

// Clear deletes all lines from the member's cart.
func (s *Service) Clear(ctx context.Context, memberID int64) error {
	if err := s.carts.Clear(ctx, memberID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// Summary aggregates the member's cart into priced lines and totals.
// An empty cart yields an empty summary, not an error.
func (s *Service) Summary(ctx context.Context, memberID int64) (*Summary, error) {
	lines, err := s.carts.ListPriced(ctx, memberID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}

	summary := &Summary{
		Items:       lines,
		TotalAmount: decimal.Zero,
	}
	for _, line := range lines {
		summary.TotalItems += line.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(line.Subtotal)
	}
	return summary, nil
}
