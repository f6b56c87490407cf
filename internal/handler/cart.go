package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

type cartLineResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ListPrice   decimal.Decimal `json:"list_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	StoreID     int64           `json:"store_id"`
	StoreName   string          `json:"store_name"`
	ImageURL    string          `json:"image_url,omitempty"`
	Stock       int             `json:"stock"`
	AddedAt     time.Time       `json:"added_at"`
}

type cartSummaryResponse struct {
	Items       []cartLineResponse `json:"items"`
	TotalItems  int                `json:"total_items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

func newCartSummaryResponse(s *cart.Summary) cartSummaryResponse {
	items := make([]cartLineResponse, len(s.Items))
	for i, line := range s.Items {
		items[i] = cartLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			ListPrice:   line.ListPrice,
			Quantity:    line.Quantity,
			Subtotal:    line.Subtotal,
			StoreID:     line.StoreID,
			StoreName:   line.StoreName,
			ImageURL:    line.ImageURL,
			Stock:       line.Stock,
			AddedAt:     line.AddedAt,
		}
	}
	return cartSummaryResponse{
		Items:       items,
		TotalItems:  s.TotalItems,
		TotalAmount: s.TotalAmount,
	}
}

func (h *Handler) cartSummary(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	summary, err := h.carts.Summary(r.Context(), memberID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartSummaryResponse(summary))
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.carts.AddItem(r.Context(), memberID, req.ProductID, req.Quantity); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), memberID, productID, req.Quantity); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.carts.RemoveItem(r.Context(), memberID, productID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	if err := h.carts.Clear(r.Context(), memberID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
