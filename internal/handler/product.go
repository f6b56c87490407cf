package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

type productResponse struct {
	ID             int64            `json:"id"`
	StoreID        int64            `json:"store_id"`
	CategoryID     int64            `json:"category_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Stock          int              `json:"stock"`
	ImageURL       string           `json:"image_url,omitempty"`
	Status         string           `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (h *Handler) newProductResponse(p *catalog.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		StoreID:        p.StoreID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: p.EffectivePrice(),
		Stock:          p.Stock,
		ImageURL:       h.imageURL(p.ImageURL),
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
	}
}

// imageURL prepends the configured base URL to relative image paths.
// Absolute URLs and empty paths pass through unchanged.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (h *Handler) newProductListResponse(products []catalog.Product) []productResponse {
	resp := make([]productResponse, len(products))
	for i := range products {
		resp[i] = h.newProductResponse(&products[i])
	}
	return resp
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.newProductListResponse(products))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.newProductResponse(p))
}

type createProductRequest struct {
	StoreID       int64            `json:"store_id"`
	CategoryID    int64            `json:"category_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Stock         int              `json:"stock"`
	ImageURL      string           `json:"image_url"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.StoreID <= 0 || req.CategoryID <= 0 {
		respondError(w, http.StatusBadRequest, "name, store_id and category_id are required")
		return
	}
	if !req.Price.IsPositive() {
		respondError(w, http.StatusBadRequest, "price must be positive")
		return
	}
	if req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "stock must not be negative")
		return
	}

	p := &catalog.Product{
		StoreID:       req.StoreID,
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		ImageURL:      req.ImageURL,
		Status:        catalog.StatusActive,
	}
	if err := h.catalog.CreateProduct(r.Context(), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.newProductResponse(p))
}

type updateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Stock         *int             `json:"stock"`
	CategoryID    *int64           `json:"category_id"`
	ImageURL      *string          `json:"image_url"`
	Status        *string          `json:"status"`
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Price != nil && !req.Price.IsPositive() {
		respondError(w, http.StatusBadRequest, "price must be positive")
		return
	}
	if req.Stock != nil && *req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "stock must not be negative")
		return
	}

	patch := catalog.ProductPatch{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		CategoryID:    req.CategoryID,
		ImageURL:      req.ImageURL,
	}
	if req.Status != nil {
		st := catalog.Status(*req.Status)
		if st != catalog.StatusActive && st != catalog.StatusInactive {
			respondError(w, http.StatusBadRequest, "invalid product status")
			return
		}
		patch.Status = &st
	}
	if patch.IsZero() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.catalog.UpdateProduct(r.Context(), id, patch); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type storeResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.catalog.ListStores(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]storeResponse, len(stores))
	for i, s := range stores {
		resp[i] = storeResponse{
			ID:          s.ID,
			OwnerID:     s.OwnerID,
			Name:        s.Name,
			Description: s.Description,
			Status:      string(s.Status),
			CreatedAt:   s.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) listStoreProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid store id")
		return
	}
	if _, err := h.catalog.GetStore(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	products, err := h.catalog.ListProductsByStore(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.newProductListResponse(products))
}

func (h *Handler) listStoreOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid store id")
		return
	}
	if _, err := h.catalog.GetStore(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	orders, total, err := h.orders.ListByStore(r.Context(), id, page, perPage)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderListResponse(orders, total, page, perPage))
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	respondJSON(w, http.StatusOK, resp)
}
