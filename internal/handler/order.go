package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

type orderResponse struct {
	ID             int64           `json:"id"`
	MemberID       int64           `json:"member_id"`
	OrderNumber    string          `json:"order_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	CouponID       *int64          `json:"coupon_id,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		MemberID:       o.MemberID,
		OrderNumber:    o.OrderNumber,
		TotalAmount:    o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		FinalAmount:    o.FinalAmount,
		CouponID:       o.CouponID,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
	}
}

type orderItemResponse struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

type orderListResponse struct {
	Orders  []orderResponse `json:"orders"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

func newOrderListResponse(orders []order.Order, total, page, perPage int) orderListResponse {
	resp := orderListResponse{
		Orders:  make([]orderResponse, len(orders)),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
	for i := range orders {
		resp.Orders[i] = newOrderResponse(&orders[i])
	}
	return resp
}

type placeOrderRequest struct {
	CouponCode string `json:"coupon_code"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req placeOrderRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	summary, err := h.carts.Summary(r.Context(), memberID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	o, err := h.orders.Create(r.Context(), memberID, summary.Items, req.CouponCode)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newOrderResponse(o))
}

func (h *Handler) listMemberOrders(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	orders, total, err := h.orders.ListByMember(r.Context(), memberID, page, perPage)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderListResponse(orders, total, page, perPage))
}

func (h *Handler) getMemberOrder(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.GetForMember(r.Context(), id, memberID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	items, err := h.orders.Items(r.Context(), o.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := orderDetailResponse{
		orderResponse: newOrderResponse(o),
		Items:         make([]orderItemResponse, len(items)),
	}
	for i, it := range items {
		resp.Items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  it.Subtotal,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "memberID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.Cancel(r.Context(), id, memberID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	orders, total, err := h.orders.ListAll(r.Context(), page, perPage)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderListResponse(orders, total, page, perPage))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(o))
}
