// Package catalog holds the product, store, and category records that the
// cart, coupon, and order flows consume.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status marks whether a product or store participates in the storefront.
// Inactive entries are hidden from carts and summaries but never deleted.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var (
	// ErrProductNotFound is returned when a requested product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrStoreNotFound is returned when a requested store does not exist.
	ErrStoreNotFound = errors.New("store not found")
	// ErrCategoryNotFound is returned when a requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
)

// Product is a catalog item owned by a single store.
type Product struct {
	ID            int64
	StoreID       int64
	CategoryID    int64
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         int
	ImageURL      string
	Status        Status
	CreatedAt     time.Time
}

// EffectivePrice returns the discount price when it is set and positive,
// otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

// InStock reports whether the product has any remaining stock.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Store is an independently owned shop hosting products.
type Store struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	Status      Status
	CreatedAt   time.Time
}

// Category groups products for coupon scoping and browsing.
type Category struct {
	ID   int64
	Name string
}

// ProductPatch describes a partial product update. Only non-nil fields are
// written; each field maps to exactly one column setter in storage.
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         *int
	CategoryID    *int64
	ImageURL      *string
	Status        *Status
}

// IsZero reports whether the patch carries no changes.
func (p ProductPatch) IsZero() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.DiscountPrice == nil && p.Stock == nil && p.CategoryID == nil &&
		p.ImageURL == nil && p.Status == nil
}

// Repository defines persistence operations for the catalog.
type Repository interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListProductsByStore(ctx context.Context, storeID int64) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, id int64, patch ProductPatch) error

	GetStore(ctx context.Context, id int64) (*Store, error)
	ListStores(ctx context.Context) ([]Store, error)

	ListCategories(ctx context.Context) ([]Category, error)

	// AnyInCategory reports whether at least one of the given products
	// belongs to the category. Used by coupon scope validation.
	AnyInCategory(ctx context.Context, productIDs []int64, categoryID int64) (bool, error)
}
