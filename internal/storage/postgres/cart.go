package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
)

const (
	upsertCartLineSQL = `INSERT INTO cart (member_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id, product_id)
		DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity, added_at = now()`

	setCartQuantitySQL = `UPDATE cart SET quantity = $3
		WHERE member_id = $1 AND product_id = $2`

	removeCartLineSQL = `DELETE FROM cart WHERE member_id = $1 AND product_id = $2`

	clearCartSQL = `DELETE FROM cart WHERE member_id = $1`

	// Lines whose product or store is inactive are excluded from the
	// summary but left in storage.
	listPricedSQL = `SELECT c.product_id, p.name,
			COALESCE(NULLIF(p.discount_price, 0), p.price) AS unit_price,
			p.price, c.quantity,
			COALESCE(NULLIF(p.discount_price, 0), p.price) * c.quantity AS subtotal,
			s.id, s.name, p.image_url, p.stock, c.added_at
		FROM cart c
		JOIN products p ON c.product_id = p.id
		JOIN stores s ON p.store_id = s.id
		WHERE c.member_id = $1 AND p.status = 'active' AND s.status = 'active'
		ORDER BY c.added_at DESC`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Upsert inserts a cart line or accumulates quantity onto an existing one,
// refreshing the line's recency.
func (r *CartRepository) Upsert(ctx context.Context, memberID, productID int64, quantity int) error {
	_, err := r.pool.Exec(ctx, upsertCartLineSQL, memberID, productID, quantity)
	if err != nil {
		return fmt.Errorf("upserting cart line for member %d: %w", memberID, err)
	}
	return nil
}

// SetQuantity overwrites a line's quantity. Setting a line that does not
// exist is a no-op; the service routes zero and below to Remove.
func (r *CartRepository) SetQuantity(ctx context.Context, memberID, productID int64, quantity int) error {
	_, err := r.pool.Exec(ctx, setCartQuantitySQL, memberID, productID, quantity)
	if err != nil {
		return fmt.Errorf("setting cart quantity for member %d: %w", memberID, err)
	}
	return nil
}

// Remove deletes one product's line from the member's cart.
func (r *CartRepository) Remove(ctx context.Context, memberID, productID int64) error {
	_, err := r.pool.Exec(ctx, removeCartLineSQL, memberID, productID)
	if err != nil {
		return fmt.Errorf("removing cart line for member %d: %w", memberID, err)
	}
	return nil
}

// Clear deletes all of the member's cart lines.
func (r *CartRepository) Clear(ctx context.Context, memberID int64) error {
	_, err := r.pool.Exec(ctx, clearCartSQL, memberID)
	if err != nil {
		return fmt.Errorf("clearing cart for member %d: %w", memberID, err)
	}
	return nil
}

// ListPriced returns the member's cart lines joined with current product
// prices, most-recently-added first.
func (r *CartRepository) ListPriced(ctx context.Context, memberID int64) ([]cart.PricedLine, error) {
	rows, err := r.pool.Query(ctx, listPricedSQL, memberID)
	if err != nil {
		return nil, fmt.Errorf("listing cart for member %d: %w", memberID, err)
	}

	lines, err := pgx.CollectRows(rows, scanPricedLine)
	if err != nil {
		return nil, fmt.Errorf("listing cart for member %d: %w", memberID, err)
	}
	return lines, nil
}

func scanPricedLine(row pgx.CollectableRow) (cart.PricedLine, error) {
	var l cart.PricedLine
	err := row.Scan(
		&l.ProductID, &l.ProductName, &l.UnitPrice, &l.ListPrice,
		&l.Quantity, &l.Subtotal, &l.StoreID, &l.StoreName,
		&l.ImageURL, &l.Stock, &l.AddedAt,
	)
	return l, err
}
