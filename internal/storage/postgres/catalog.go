package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/catalog"
)

const (
	productColumns = `id, store_id, category_id, name, description, price,
		discount_price, stock, image_url, status, created_at`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE status = 'active' ORDER BY created_at DESC`

	listProductsByStoreSQL = `SELECT ` + productColumns + ` FROM products
		WHERE store_id = $1 ORDER BY created_at DESC`

	createProductSQL = `INSERT INTO products
		(store_id, category_id, name, description, price, discount_price, stock, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	getStoreSQL = `SELECT id, owner_id, name, description, status, created_at
		FROM stores WHERE id = $1`

	listStoresSQL = `SELECT id, owner_id, name, description, status, created_at
		FROM stores WHERE status = 'active' ORDER BY id`

	listCategoriesSQL = `SELECT id, name FROM categories ORDER BY name`

	anyInCategorySQL = `SELECT COUNT(*) FROM products
		WHERE id = ANY($1) AND category_id = $2`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// GetProduct returns a single product by id.
func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// ListProducts returns all active products, newest first.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// ListProductsByStore returns every product of one store, any status.
func (r *CatalogRepository) ListProductsByStore(ctx context.Context, storeID int64) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsByStoreSQL, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing products for store %d: %w", storeID, err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products for store %d: %w", storeID, err)
	}
	return products, nil
}

// CreateProduct inserts a product and fills in its id and creation time.
func (r *CatalogRepository) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if p.Status == "" {
		p.Status = catalog.StatusActive
	}
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.StoreID, p.CategoryID, p.Name, p.Description,
		p.Price, p.DiscountPrice, p.Stock, p.ImageURL, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// UpdateProduct applies a partial update built from the patch's non-nil
// fields. Column names come from a fixed set of setters, never from input.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, id int64, patch catalog.ProductPatch) error {
	b := newPatchBuilder()
	patchSet(b, "name", patch.Name)
	patchSet(b, "description", patch.Description)
	patchSet(b, "price", patch.Price)
	patchSet(b, "discount_price", patch.DiscountPrice)
	patchSet(b, "stock", patch.Stock)
	patchSet(b, "category_id", patch.CategoryID)
	patchSet(b, "image_url", patch.ImageURL)
	patchSet(b, "status", patch.Status)
	if b.empty() {
		return nil
	}

	tag, err := r.pool.Exec(ctx, b.updateSQL("products"), b.args(id)...)
	if err != nil {
		return fmt.Errorf("updating product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// GetStore returns a single store by id.
func (r *CatalogRepository) GetStore(ctx context.Context, id int64) (*catalog.Store, error) {
	rows, err := r.pool.Query(ctx, getStoreSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting store %d: %w", id, err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanStore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrStoreNotFound
		}
		return nil, fmt.Errorf("getting store %d: %w", id, err)
	}
	return &s, nil
}

// ListStores returns all active stores.
func (r *CatalogRepository) ListStores(ctx context.Context) ([]catalog.Store, error) {
	rows, err := r.pool.Query(ctx, listStoresSQL)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	stores, err := pgx.CollectRows(rows, scanStore)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	return stores, nil
}

// ListCategories returns all categories ordered by name.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	cats, err := pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Category])
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cats, nil
}

// AnyInCategory reports whether at least one of the given products belongs
// to the category.
func (r *CatalogRepository) AnyInCategory(ctx context.Context, productIDs []int64, categoryID int64) (bool, error) {
	if len(productIDs) == 0 {
		return false, nil
	}
	var count int
	err := r.pool.QueryRow(ctx, anyInCategorySQL, productIDs, categoryID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking category %d membership: %w", categoryID, err)
	}
	return count > 0, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.StoreID, &p.CategoryID, &p.Name, &p.Description,
		&p.Price, &p.DiscountPrice, &p.Stock, &p.ImageURL, &p.Status, &p.CreatedAt,
	)
	return p, err
}

func scanStore(row pgx.CollectableRow) (catalog.Store, error) {
	var s catalog.Store
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Status, &s.CreatedAt)
	return s, err
}

// patchBuilder accumulates SET clauses for partial updates. Columns are
// hard-coded at each call site; only values are parameterized.
type patchBuilder struct {
	sets   []string
	values []any
}

func newPatchBuilder() *patchBuilder {
	return &patchBuilder{}
}

// patchSet appends "col = $n" when the value pointer is non-nil.
func patchSet[T any](b *patchBuilder, column string, v *T) {
	if v == nil {
		return
	}
	b.values = append(b.values, *v)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.values)))
}

func (b *patchBuilder) empty() bool {
	return len(b.sets) == 0
}

// updateSQL renders "UPDATE table SET ... WHERE id = $n".
func (b *patchBuilder) updateSQL(table string) string {
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		table, strings.Join(b.sets, ", "), len(b.values)+1)
}

// args returns the positional values with the row id appended last.
func (b *patchBuilder) args(id int64) []any {
	return append(b.values, id)
}
