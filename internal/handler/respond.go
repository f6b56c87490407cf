package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/member"
	"github.com/xenking/storefront/internal/domain/order"
)

// errorResponse is the uniform error body for every failed request.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError translates domain errors into HTTP responses. Storage
// faults are logged and masked with a generic message so nothing internal
// leaks to callers.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var minErr *coupon.MinPurchaseError
	var stockErr *cart.OutOfStockError

	switch {
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, coupon.ErrInvalidRule),
		errors.As(err, &minErr):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.As(err, &stockErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrStoreNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, member.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, coupon.ErrCodeTaken),
		errors.Is(err, order.ErrStatusConflict):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrNotCancellable):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses a positive integer path segment.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
