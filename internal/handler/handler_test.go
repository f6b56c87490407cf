package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/member"
	"github.com/xenking/storefront/internal/domain/order"
)

// --- Mock repositories ---

type mockCatalogRepo struct {
	products map[int64]*catalog.Product
	stores   map[int64]*catalog.Store
}

func (m *mockCatalogRepo) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalogRepo) ListProducts(_ context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockCatalogRepo) ListProductsByStore(_ context.Context, storeID int64) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		if p.StoreID == storeID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockCatalogRepo) CreateProduct(_ context.Context, p *catalog.Product) error {
	p.ID = int64(len(m.products) + 1)
	p.CreatedAt = time.Now()
	m.products[p.ID] = p
	return nil
}

func (m *mockCatalogRepo) UpdateProduct(_ context.Context, id int64, _ catalog.ProductPatch) error {
	if _, ok := m.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (m *mockCatalogRepo) GetStore(_ context.Context, id int64) (*catalog.Store, error) {
	s, ok := m.stores[id]
	if !ok {
		return nil, catalog.ErrStoreNotFound
	}
	return s, nil
}

func (m *mockCatalogRepo) ListStores(_ context.Context) ([]catalog.Store, error) {
	var out []catalog.Store
	for _, s := range m.stores {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockCatalogRepo) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: 1, Name: "Food"}}, nil
}

func (m *mockCatalogRepo) AnyInCategory(_ context.Context, _ []int64, _ int64) (bool, error) {
	return true, nil
}

type mockCartRepo struct {
	lines []cart.PricedLine
}

func (m *mockCartRepo) Upsert(_ context.Context, _, _ int64, _ int) error      { return nil }
func (m *mockCartRepo) SetQuantity(_ context.Context, _, _ int64, _ int) error { return nil }
func (m *mockCartRepo) Remove(_ context.Context, _, _ int64) error             { return nil }
func (m *mockCartRepo) Clear(_ context.Context, _ int64) error                 { return nil }

func (m *mockCartRepo) ListPriced(_ context.Context, _ int64) ([]cart.PricedLine, error) {
	return m.lines, nil
}

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
}

func (m *mockCouponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	c.ID = 1
	c.CreatedAt = time.Now()
	return nil
}

func (m *mockCouponRepo) GetByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) GetByID(_ context.Context, _ int64) (*coupon.Coupon, error) {
	return nil, coupon.ErrNotFound
}

func (m *mockCouponRepo) ListByCreator(_ context.Context, _ coupon.CreatorType, _ int64) ([]coupon.Coupon, error) {
	return nil, nil
}

func (m *mockCouponRepo) ListAll(_ context.Context) ([]coupon.Coupon, error) { return nil, nil }

func (m *mockCouponRepo) Update(_ context.Context, _ int64, _ coupon.Patch) error { return nil }

func (m *mockCouponRepo) Delete(_ context.Context, _ int64) error { return nil }

type mockOrderRepo struct {
	lastOrder *order.Order
	lastItems []order.Item
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order, items []order.Item) error {
	o.ID = 1
	o.CreatedAt = time.Now()
	m.lastOrder = o
	m.lastItems = items
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	if m.lastOrder == nil || m.lastOrder.ID != id {
		return nil, order.ErrNotFound
	}
	return m.lastOrder, nil
}

func (m *mockOrderRepo) ListByMember(_ context.Context, _ int64, _, _ int) ([]order.Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) ListByStore(_ context.Context, _ int64, _, _ int) ([]order.Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context, _, _ int) ([]order.Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) ListItems(_ context.Context, _ int64) ([]order.Item, error) {
	return m.lastItems, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ int64, _, _ order.Status, _ *int64) error {
	return nil
}

type mockMemberRepo struct{}

func (m *mockMemberRepo) GetByID(_ context.Context, _ int64) (*member.Member, error) {
	return nil, member.ErrNotFound
}

func (m *mockMemberRepo) GetByEmail(_ context.Context, _ string) (*member.Member, error) {
	return nil, member.ErrNotFound
}

func (m *mockMemberRepo) List(_ context.Context) ([]member.Member, error) { return nil, nil }

func (m *mockMemberRepo) Create(_ context.Context, _ *member.Member) error { return nil }

func (m *mockMemberRepo) SetStatus(_ context.Context, _ int64, _ member.Status) error { return nil }

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	mux     *http.ServeMux
	catalog *mockCatalogRepo
	carts   *mockCartRepo
	coupons *mockCouponRepo
	orders  *mockOrderRepo
}

func newFixture() *fixture {
	f := &fixture{
		catalog: &mockCatalogRepo{
			products: map[int64]*catalog.Product{},
			stores:   map[int64]*catalog.Store{},
		},
		carts:   &mockCartRepo{},
		coupons: &mockCouponRepo{byCode: map[string]*coupon.Coupon{}},
		orders:  &mockOrderRepo{},
	}

	h := New(
		Config{ImageBaseURL: "https://cdn.example.com"},
		cart.NewService(f.carts, f.catalog),
		coupon.NewService(f.coupons, f.catalog),
		order.NewService(f.orders, f.coupons, f.catalog, order.Config{}),
		f.catalog,
		&mockMemberRepo{},
	)
	f.mux = http.NewServeMux()
	h.Routes(f.mux)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	return w
}

// --- Tests ---

func TestCheckCouponEndpoint(t *testing.T) {
	f := newFixture()
	f.coupons.byCode["SAVE10"] = &coupon.Coupon{
		ID:           1,
		Code:         "SAVE10",
		DiscountType: coupon.DiscountPercentage,
		Value:        dec("10"),
		ValidFrom:    time.Now().Add(-time.Hour),
		ValidTo:      time.Now().Add(time.Hour),
		Scope:        coupon.ScopeAll,
	}

	t.Run("valid coupon", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/coupons/check",
			`{"code":"SAVE10","total_amount":"200","store_id":1}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Valid          bool   `json:"valid"`
			Message        string `json:"message"`
			DiscountAmount string `json:"discount_amount"`
			FinalAmount    string `json:"final_amount"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
		assert.Equal(t, "20", resp.DiscountAmount)
		assert.Equal(t, "180", resp.FinalAmount)
	})

	t.Run("unknown coupon still returns 200", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/coupons/check",
			`{"code":"NOPE","total_amount":"200"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Valid   bool   `json:"valid"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Valid)
		assert.Equal(t, "coupon not found", resp.Message)
	})

	t.Run("missing code is a 400", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/coupons/check", `{"total_amount":"200"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPlaceOrderEndpoint(t *testing.T) {
	t.Run("places order from cart lines", func(t *testing.T) {
		f := newFixture()
		f.carts.lines = []cart.PricedLine{
			{ProductID: 1, UnitPrice: dec("100"), Quantity: 2, Subtotal: dec("200"), StoreID: 1},
		}

		w := f.do(t, http.MethodPost, "/api/members/5/orders", `{}`)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			OrderNumber string `json:"order_number"`
			TotalAmount string `json:"total_amount"`
			FinalAmount string `json:"final_amount"`
			Status      string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.OrderNumber, "ORD"))
		assert.Equal(t, "200", resp.TotalAmount)
		assert.Equal(t, "200", resp.FinalAmount)
		assert.Equal(t, "pending", resp.Status)
		require.NotNil(t, f.orders.lastOrder)
		assert.Equal(t, int64(5), f.orders.lastOrder.MemberID)
	})

	t.Run("empty cart is a 400", func(t *testing.T) {
		f := newFixture()
		w := f.do(t, http.MethodPost, "/api/members/5/orders", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCartEndpoints(t *testing.T) {
	f := newFixture()
	f.catalog.products[1] = &catalog.Product{
		ID: 1, StoreID: 1, Name: "Widget",
		Price: dec("10"), Stock: 5, Status: catalog.StatusActive,
	}

	t.Run("add item", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/members/5/cart/items",
			`{"product_id":1,"quantity":2}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("add out-of-stock quantity is a 422", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/members/5/cart/items",
			`{"product_id":1,"quantity":10}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("add unknown product is a 404", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/members/5/cart/items",
			`{"product_id":99,"quantity":1}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("summary totals", func(t *testing.T) {
		f.carts.lines = []cart.PricedLine{
			{ProductID: 1, ProductName: "Widget", UnitPrice: dec("10"), Quantity: 2, Subtotal: dec("20"), StoreID: 1},
		}
		w := f.do(t, http.MethodGet, "/api/members/5/cart", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			TotalItems  int    `json:"total_items"`
			TotalAmount string `json:"total_amount"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.TotalItems)
		assert.Equal(t, "20", resp.TotalAmount)
	})
}

func TestProductImageURL(t *testing.T) {
	f := newFixture()
	f.catalog.products[1] = &catalog.Product{
		ID: 1, StoreID: 1, Name: "Widget",
		Price: dec("10"), Stock: 5, Status: catalog.StatusActive,
		ImageURL: "products/widget.jpg",
	}
	f.catalog.products[2] = &catalog.Product{
		ID: 2, StoreID: 1, Name: "Gizmo",
		Price: dec("15"), Stock: 5, Status: catalog.StatusActive,
		ImageURL: "https://elsewhere.example.com/gizmo.jpg",
	}

	w := f.do(t, http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ImageURL string `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://cdn.example.com/products/widget.jpg", resp.ImageURL)

	w = f.do(t, http.MethodGet, "/api/products/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://elsewhere.example.com/gizmo.jpg", resp.ImageURL)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	f := newFixture()
	f.carts.lines = []cart.PricedLine{
		{ProductID: 1, UnitPrice: dec("100"), Quantity: 1, Subtotal: dec("100"), StoreID: 1},
	}
	w := f.do(t, http.MethodPost, "/api/members/5/orders", `{}`)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("allowed transition", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/orders/1/status", `{"status":"confirmed"}`)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid transition is a 422", func(t *testing.T) {
		f.orders.lastOrder.Status = order.StatusDelivered
		w := f.do(t, http.MethodPost, "/api/orders/1/status", `{"status":"cancelled"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
