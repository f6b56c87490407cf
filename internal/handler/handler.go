// Package handler exposes the storefront core over a thin JSON API.
//
// The API is an internal façade: callers are trusted services that supply
// validated member ids directly, authenticated by API key. Sessions, HTML,
// and end-user authentication live elsewhere.
package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/member"
	"github.com/xenking/storefront/internal/domain/order"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler implements the storefront JSON API, delegating business logic to
// the injected domain services.
type Handler struct {
	carts        *cart.Service
	coupons      *coupon.Service
	orders       *order.Service
	catalog      catalog.Repository
	members      member.Repository
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, carts *cart.Service, coupons *coupon.Service, orders *order.Service, cat catalog.Repository, members member.Repository) *Handler {
	return &Handler{
		carts:        carts,
		coupons:      coupons,
		orders:       orders,
		catalog:      cat,
		members:      members,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes registers every API route on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("PATCH /api/products/{id}", h.updateProduct)
	mux.HandleFunc("GET /api/stores", h.listStores)
	mux.HandleFunc("GET /api/stores/{id}/products", h.listStoreProducts)
	mux.HandleFunc("GET /api/stores/{id}/orders", h.listStoreOrders)
	mux.HandleFunc("GET /api/categories", h.listCategories)

	mux.HandleFunc("GET /api/members", h.listMembers)
	mux.HandleFunc("POST /api/members", h.createMember)
	mux.HandleFunc("GET /api/members/{memberID}", h.getMember)
	mux.HandleFunc("POST /api/members/{memberID}/status", h.setMemberStatus)

	mux.HandleFunc("GET /api/members/{memberID}/cart", h.cartSummary)
	mux.HandleFunc("POST /api/members/{memberID}/cart/items", h.addCartItem)
	mux.HandleFunc("PUT /api/members/{memberID}/cart/items/{productID}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/members/{memberID}/cart/items/{productID}", h.removeCartItem)
	mux.HandleFunc("DELETE /api/members/{memberID}/cart", h.clearCart)

	mux.HandleFunc("POST /api/coupons/check", h.checkCoupon)
	mux.HandleFunc("POST /api/coupons", h.createCoupon)
	mux.HandleFunc("GET /api/coupons", h.listCoupons)
	mux.HandleFunc("GET /api/coupons/{id}", h.getCoupon)
	mux.HandleFunc("PATCH /api/coupons/{id}", h.updateCoupon)
	mux.HandleFunc("DELETE /api/coupons/{id}", h.deleteCoupon)

	mux.HandleFunc("POST /api/members/{memberID}/orders", h.placeOrder)
	mux.HandleFunc("GET /api/members/{memberID}/orders", h.listMemberOrders)
	mux.HandleFunc("GET /api/members/{memberID}/orders/{id}", h.getMemberOrder)
	mux.HandleFunc("POST /api/members/{memberID}/orders/{id}/cancel", h.cancelOrder)

	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("POST /api/orders/{id}/status", h.updateOrderStatus)
}
