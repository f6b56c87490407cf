package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

type checkCouponRequest struct {
	Code        string          `json:"code"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ProductIDs  []int64         `json:"product_ids"`
	StoreID     int64           `json:"store_id"`
}

type checkCouponResponse struct {
	Valid          bool             `json:"valid"`
	Message        string           `json:"message"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	FinalAmount    *decimal.Decimal `json:"final_amount,omitempty"`
}

func (h *Handler) checkCoupon(w http.ResponseWriter, r *http.Request) {
	var req checkCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "coupon code is required")
		return
	}

	result, err := h.coupons.CheckCode(r.Context(), req.Code, req.TotalAmount, req.ProductIDs, req.StoreID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := checkCouponResponse{Valid: result.Valid, Message: result.Reason}
	if result.Valid {
		resp.DiscountAmount = &result.Discount
		resp.FinalAmount = &result.Final
	}
	respondJSON(w, http.StatusOK, resp)
}

type couponResponse struct {
	ID            int64            `json:"id"`
	Code          string           `json:"code"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinPurchase   decimal.Decimal  `json:"min_purchase"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	ValidFrom     time.Time        `json:"valid_from"`
	ValidTo       time.Time        `json:"valid_to"`
	UsageLimit    *int             `json:"usage_limit,omitempty"`
	UsedCount     int              `json:"used_count"`
	CreatedByType string           `json:"created_by_type"`
	CreatedByID   int64            `json:"created_by_id"`
	ApplicableTo  string           `json:"applicable_to"`
	ApplicableID  *int64           `json:"applicable_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func newCouponResponse(c *coupon.Coupon) couponResponse {
	return couponResponse{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.Value,
		MinPurchase:   c.MinPurchase,
		MaxDiscount:   c.MaxDiscount,
		ValidFrom:     c.ValidFrom,
		ValidTo:       c.ValidTo,
		UsageLimit:    c.UsageLimit,
		UsedCount:     c.UsedCount,
		CreatedByType: string(c.CreatedByType),
		CreatedByID:   c.CreatedByID,
		ApplicableTo:  string(c.Scope),
		ApplicableID:  c.ScopeID,
		CreatedAt:     c.CreatedAt,
	}
}

type createCouponRequest struct {
	Code          string           `json:"code"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinPurchase   decimal.Decimal  `json:"min_purchase"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	ValidFrom     *time.Time       `json:"valid_from"`
	ValidTo       *time.Time       `json:"valid_to"`
	UsageLimit    *int             `json:"usage_limit"`
	CreatedByType string           `json:"created_by_type"`
	CreatedByID   int64            `json:"created_by_id"`
	ApplicableTo  string           `json:"applicable_to"`
	ApplicableID  *int64           `json:"applicable_id"`
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "coupon code is required")
		return
	}

	c := &coupon.Coupon{
		Code:          req.Code,
		DiscountType:  coupon.DiscountType(req.DiscountType),
		Value:         req.DiscountValue,
		MinPurchase:   req.MinPurchase,
		MaxDiscount:   req.MaxDiscount,
		UsageLimit:    req.UsageLimit,
		CreatedByType: coupon.CreatorType(req.CreatedByType),
		CreatedByID:   req.CreatedByID,
		Scope:         coupon.Scope(req.ApplicableTo),
		ScopeID:       req.ApplicableID,
	}
	if req.ValidFrom != nil {
		c.ValidFrom = *req.ValidFrom
	}
	if req.ValidTo != nil {
		c.ValidTo = *req.ValidTo
	}

	if err := h.coupons.Create(r.Context(), c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCouponResponse(c))
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	var (
		coupons []coupon.Coupon
		err     error
	)

	q := r.URL.Query()
	if creator := q.Get("created_by_type"); creator != "" {
		creatorID := int64(queryInt(r, "created_by_id", 0))
		coupons, err = h.coupons.ListByCreator(r.Context(), coupon.CreatorType(creator), creatorID)
	} else {
		coupons, err = h.coupons.ListAll(r.Context())
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i := range coupons {
		resp[i] = newCouponResponse(&coupons[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}

	c, err := h.coupons.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCouponResponse(c))
}

type updateCouponRequest struct {
	Code          *string          `json:"code"`
	DiscountType  *string          `json:"discount_type"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	MinPurchase   *decimal.Decimal `json:"min_purchase"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	ValidFrom     *time.Time       `json:"valid_from"`
	ValidTo       *time.Time       `json:"valid_to"`
	UsageLimit    *int             `json:"usage_limit"`
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}

	var req updateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := coupon.Patch{
		Code:        req.Code,
		Value:       req.DiscountValue,
		MinPurchase: req.MinPurchase,
		MaxDiscount: req.MaxDiscount,
		ValidFrom:   req.ValidFrom,
		ValidTo:     req.ValidTo,
		UsageLimit:  req.UsageLimit,
	}
	if req.DiscountType != nil {
		dt := coupon.DiscountType(*req.DiscountType)
		patch.DiscountType = &dt
	}

	if err := h.coupons.Update(r.Context(), id, patch); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}

	if err := h.coupons.Delete(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
