// Command seed-db prepares a development database: it runs migrations and
// loads demo stores, categories, members, products, coupons, and an API key.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/storage/postgres"
)

type productJSON struct {
	Store         string           `json:"store"`
	Category      string           `json:"category"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Stock         int              `json:"stock"`
	ImageURL      string           `json:"image_url"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or STORE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STORE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("STORE_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or STORE_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("STORE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	members, err := seedMembers(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "seed members")
	}

	stores, err := seedStores(ctx, pool, members)
	if err != nil {
		return errors.Wrap(err, "seed stores")
	}

	categories, err := seedCategories(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "seed categories")
	}

	if err := seedProducts(ctx, pool, productsFile, stores, categories); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, pool, stores); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedMembers(ctx context.Context, pool *pgxpool.Pool) (map[string]int64, error) {
	members := []struct {
		email, name string
	}{
		{"alice@example.com", "Alice Chen"},
		{"bob@example.com", "Bob Park"},
		{"carol@example.com", "Carol Diaz"},
	}

	ids := make(map[string]int64, len(members))
	for _, m := range members {
		var id int64
		err := pool.QueryRow(ctx, `INSERT INTO members (email, name)
			VALUES ($1, $2)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, m.email, m.name).Scan(&id)
		if err != nil {
			return nil, errors.Wrapf(err, "upsert member %s", m.email)
		}
		ids[m.email] = id
		slog.Info("upserted member", slog.String("email", m.email))
	}
	return ids, nil
}

func seedStores(ctx context.Context, pool *pgxpool.Pool, members map[string]int64) (map[string]int64, error) {
	stores := []struct {
		name, description, owner string
	}{
		{"Fresh Grocer", "Groceries and fresh produce", "alice@example.com"},
		{"Gadget Hub", "Consumer electronics and accessories", "bob@example.com"},
	}

	ids := make(map[string]int64, len(stores))
	for _, s := range stores {
		var id int64
		// Store names are not unique in the schema; look up before insert so
		// re-running the seed does not duplicate them.
		err := pool.QueryRow(ctx, `SELECT id FROM stores WHERE name = $1`, s.name).Scan(&id)
		if err != nil {
			err = pool.QueryRow(ctx, `INSERT INTO stores (owner_id, name, description)
				VALUES ($1, $2, $3) RETURNING id`,
				members[s.owner], s.name, s.description).Scan(&id)
			if err != nil {
				return nil, errors.Wrapf(err, "insert store %s", s.name)
			}
		}
		ids[s.name] = id
		slog.Info("upserted store", slog.String("name", s.name))
	}
	return ids, nil
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) (map[string]int64, error) {
	names := []string{"Food", "Electronics", "Home", "Apparel"}

	ids := make(map[string]int64, len(names))
	for _, name := range names {
		var id int64
		err := pool.QueryRow(ctx, `INSERT INTO categories (name)
			VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&id)
		if err != nil {
			return nil, errors.Wrapf(err, "upsert category %s", name)
		}
		ids[name] = id
	}
	slog.Info("upserted categories", slog.Int("count", len(names)))
	return ids, nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string, stores, categories map[string]int64) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		storeID, ok := stores[p.Store]
		if !ok {
			return errors.Errorf("product %q references unknown store %q", p.Name, p.Store)
		}
		categoryID, ok := categories[p.Category]
		if !ok {
			return errors.Errorf("product %q references unknown category %q", p.Name, p.Category)
		}

		var id int64
		err := pool.QueryRow(ctx, `SELECT id FROM products WHERE store_id = $1 AND name = $2`,
			storeID, p.Name).Scan(&id)
		if err != nil {
			err = pool.QueryRow(ctx, `INSERT INTO products
				(store_id, category_id, name, description, price, discount_price, stock, image_url)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
				storeID, categoryID, p.Name, p.Description, p.Price, p.DiscountPrice, p.Stock, p.ImageURL,
			).Scan(&id)
			if err != nil {
				return errors.Wrapf(err, "insert product %s", p.Name)
			}
		}

		slog.Info("upserted product", slog.Int64("id", id), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool, stores map[string]int64) error {
	slog.Info("seeding demo coupons")

	now := time.Now()
	yearEnd := time.Date(now.Year()+1, time.December, 31, 23, 59, 59, 0, time.UTC)
	cap50 := decimal.NewFromInt(50)
	limit100 := 100

	coupons := []struct {
		code          string
		discountType  string
		value         decimal.Decimal
		minPurchase   decimal.Decimal
		maxDiscount   *decimal.Decimal
		usageLimit    *int
		createdByType string
		createdByID   int64
		applicableTo  string
		applicableID  *int64
	}{
		{
			code:          "WELCOME10",
			discountType:  "percentage",
			value:         decimal.NewFromInt(10),
			minPurchase:   decimal.Zero,
			maxDiscount:   &cap50,
			createdByType: "admin",
			createdByID:   1,
			applicableTo:  "all",
		},
		{
			code:          "SAVE20",
			discountType:  "fixed",
			value:         decimal.NewFromInt(20),
			minPurchase:   decimal.NewFromInt(100),
			usageLimit:    &limit100,
			createdByType: "admin",
			createdByID:   1,
			applicableTo:  "all",
		},
	}

	if id, ok := stores["Fresh Grocer"]; ok {
		coupons = append(coupons, struct {
			code          string
			discountType  string
			value         decimal.Decimal
			minPurchase   decimal.Decimal
			maxDiscount   *decimal.Decimal
			usageLimit    *int
			createdByType string
			createdByID   int64
			applicableTo  string
			applicableID  *int64
		}{
			code:          "GROCER15",
			discountType:  "percentage",
			value:         decimal.NewFromInt(15),
			minPurchase:   decimal.NewFromInt(50),
			createdByType: "store",
			createdByID:   id,
			applicableTo:  "store",
			applicableID:  &id,
		})
	}

	for _, c := range coupons {
		_, err := pool.Exec(ctx, `INSERT INTO coupons
			(code, discount_type, discount_value, min_purchase, max_discount,
			 valid_from, valid_to, usage_limit, created_by_type, created_by_id,
			 applicable_to, applicable_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (code) DO UPDATE SET
				discount_value = EXCLUDED.discount_value,
				min_purchase = EXCLUDED.min_purchase,
				valid_to = EXCLUDED.valid_to`,
			c.code, c.discountType, c.value, c.minPurchase, c.maxDiscount,
			now, yearEnd, c.usageLimit, c.createdByType, c.createdByID,
			c.applicableTo, c.applicableID,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
		slog.Info("upserted coupon", slog.String("code", c.code))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, `INSERT INTO api_keys (id, key_hash, name, scopes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash`,
		"default", keyHash, "Default test key", []string{"storefront"},
	)
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))

	return nil
}
