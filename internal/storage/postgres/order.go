package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
)

const (
	// Consumption is a conditional atomic increment: zero rows affected
	// means the allowance is exhausted, closing the check-then-increment
	// race between concurrent checkouts of a near-exhausted coupon.
	consumeCouponSQL = `UPDATE coupons SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`

	releaseCouponSQL = `UPDATE coupons SET used_count = GREATEST(used_count - 1, 0)
		WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders
		(member_id, order_number, total_amount, discount_amount, final_amount, coupon_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	orderColumns = `id, member_id, order_number, total_amount, discount_amount,
		final_amount, coupon_id, status, created_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByMemberSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE member_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	countOrdersByMemberSQL = `SELECT COUNT(*) FROM orders WHERE member_id = $1`

	listOrdersByStoreSQL = `SELECT DISTINCT o.id, o.member_id, o.order_number,
			o.total_amount, o.discount_amount, o.final_amount, o.coupon_id,
			o.status, o.created_at
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		JOIN products p ON oi.product_id = p.id
		WHERE p.store_id = $1
		ORDER BY o.created_at DESC LIMIT $2 OFFSET $3`

	countOrdersByStoreSQL = `SELECT COUNT(DISTINCT o.id)
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		JOIN products p ON oi.product_id = p.id
		WHERE p.store_id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	countOrdersSQL = `SELECT COUNT(*) FROM orders`

	listOrderItemsSQL = `SELECT id, order_id, product_id, quantity, price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`

	updateOrderStatusSQL = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order atomically: coupon consumption when a coupon is
// attached, the order row, its item snapshots, and the deletion of the
// member's cart lines all commit or roll back together.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, items []order.Item) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if o.CouponID != nil {
		tag, err := tx.Exec(ctx, consumeCouponSQL, *o.CouponID)
		if err != nil {
			return fmt.Errorf("consuming coupon %d: %w", *o.CouponID, err)
		}
		if tag.RowsAffected() == 0 {
			return coupon.ErrUsageLimitReached
		}
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.MemberID, o.OrderNumber, o.TotalAmount, o.DiscountAmount,
		o.FinalAmount, o.CouponID, o.Status,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrNumberTaken
		}
		return fmt.Errorf("creating order %q: %w", o.OrderNumber, err)
	}

	for i := range items {
		items[i].OrderID = o.ID
		err = tx.QueryRow(ctx, insertOrderItemSQL,
			o.ID, items[i].ProductID, items[i].Quantity,
			items[i].Price, items[i].Subtotal,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("creating item for order %q: %w", o.OrderNumber, err)
		}
	}

	if _, err := tx.Exec(ctx, clearCartSQL, o.MemberID); err != nil {
		return fmt.Errorf("clearing cart for member %d: %w", o.MemberID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.OrderNumber, err)
	}
	return nil
}

// GetByID returns an order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return &o, nil
}

// ListByMember returns one page of a member's orders plus the total count.
func (r *OrderRepository) ListByMember(ctx context.Context, memberID int64, page, perPage int) ([]order.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countOrdersByMemberSQL, memberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders for member %d: %w", memberID, err)
	}

	limit, offset := pageBounds(page, perPage)
	rows, err := r.pool.Query(ctx, listOrdersByMemberSQL, memberID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders for member %d: %w", memberID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders for member %d: %w", memberID, err)
	}
	return orders, total, nil
}

// ListByStore returns one page of orders that contain the store's products.
func (r *OrderRepository) ListByStore(ctx context.Context, storeID int64, page, perPage int) ([]order.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countOrdersByStoreSQL, storeID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders for store %d: %w", storeID, err)
	}

	limit, offset := pageBounds(page, perPage)
	rows, err := r.pool.Query(ctx, listOrdersByStoreSQL, storeID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders for store %d: %w", storeID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders for store %d: %w", storeID, err)
	}
	return orders, total, nil
}

// ListAll returns one page of all orders.
func (r *OrderRepository) ListAll(ctx context.Context, page, perPage int) ([]order.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countOrdersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	limit, offset := pageBounds(page, perPage)
	rows, err := r.pool.Query(ctx, listOrdersSQL, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

// ListItems returns the frozen line items of an order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID int64) ([]order.Item, error) {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %d: %w", orderID, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[order.Item])
	if err != nil {
		return nil, fmt.Errorf("listing items for order %d: %w", orderID, err)
	}
	return items, nil
}

// UpdateStatus performs a guarded status transition, optionally releasing a
// coupon use in the same transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to order.Status, releaseCouponID *int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning status transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx, updateOrderStatusSQL, id, from, to)
	if err != nil {
		return fmt.Errorf("updating status of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrStatusConflict
	}

	if releaseCouponID != nil {
		if _, err := tx.Exec(ctx, releaseCouponSQL, *releaseCouponID); err != nil {
			return fmt.Errorf("releasing coupon %d: %w", *releaseCouponID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing status of order %d: %w", id, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.MemberID, &o.OrderNumber, &o.TotalAmount, &o.DiscountAmount,
		&o.FinalAmount, &o.CouponID, &o.Status, &o.CreatedAt,
	)
	return o, err
}

// pageBounds converts 1-based page numbers into LIMIT/OFFSET values.
func pageBounds(page, perPage int) (limit, offset int) {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}
	return perPage, (page - 1) * perPage
}
