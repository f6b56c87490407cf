//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

// amount parses a quoted decimal amount for numeric comparison; formatting
// (trailing zeros) is not part of the contract.
func amount(t *testing.T, s string) float64 {
	t.Helper()
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}
	return f
}

// Seeded catalog: product 1 is Organic Apples ($6.50) and product 2 is
// Sourdough Loaf ($5.00, discounted to $4.20), both from store 1.
// Product 6 (Logo Tee) is seeded with zero stock.

func TestCheckoutFlow(t *testing.T) {
	const memberID = 1
	cartPath := fmt.Sprintf("/api/members/%d/cart", memberID)

	// Build the cart: 2 apples + 1 loaf.
	resp := doPost(t, cartPath+"/items", map[string]any{"product_id": 1, "quantity": 2})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add apples: expected 204, got %d", resp.StatusCode)
	}

	resp = doPost(t, cartPath+"/items", map[string]any{"product_id": 2, "quantity": 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add loaf: expected 204, got %d", resp.StatusCode)
	}

	// Summary uses the discounted loaf price: 2*6.50 + 4.20 = 17.20.
	resp = doGet(t, cartPath)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cart summary: expected 200, got %d", resp.StatusCode)
	}
	summary := decodeBody[cartSummaryResponse](t, resp)
	resp.Body.Close()

	if summary.TotalItems != 3 {
		t.Errorf("total items: got %d, want 3", summary.TotalItems)
	}
	if got := amount(t, summary.TotalAmount); got != 17.20 {
		t.Errorf("total amount: got %v, want 17.20", got)
	}

	// Pre-check the admin coupon: 10% of 17.20 = 1.72.
	resp = doPost(t, "/api/coupons/check", map[string]any{
		"code":         "WELCOME10",
		"total_amount": summary.TotalAmount,
		"store_id":     1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check coupon: expected 200, got %d", resp.StatusCode)
	}
	check := decodeBody[checkCouponResponse](t, resp)
	resp.Body.Close()

	if !check.Valid {
		t.Fatalf("coupon check: expected valid, got %q", check.Message)
	}
	if got := amount(t, check.DiscountAmount); got != 1.72 {
		t.Errorf("discount: got %v, want 1.72", got)
	}

	// Place the order with the coupon.
	resp = doPost(t, fmt.Sprintf("/api/members/%d/orders", memberID), map[string]any{
		"coupon_code": "WELCOME10",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}
	order := decodeBody[orderResponse](t, resp)
	resp.Body.Close()

	if !strings.HasPrefix(order.OrderNumber, "ORD") {
		t.Errorf("order number %q does not start with ORD", order.OrderNumber)
	}
	if got := amount(t, order.TotalAmount); got != 17.20 {
		t.Errorf("order total: got %v, want 17.20", got)
	}
	if got := amount(t, order.DiscountAmount); got != 1.72 {
		t.Errorf("order discount: got %v, want 1.72", got)
	}
	if got := amount(t, order.FinalAmount); got != 15.48 {
		t.Errorf("order final: got %v, want 15.48", got)
	}
	if order.Status != "pending" {
		t.Errorf("order status: got %q, want pending", order.Status)
	}

	// Order creation empties the cart.
	resp = doGet(t, cartPath)
	emptied := decodeBody[cartSummaryResponse](t, resp)
	resp.Body.Close()
	if emptied.TotalItems != 0 {
		t.Errorf("cart after order: got %d items, want 0", emptied.TotalItems)
	}

	// Line items are frozen snapshots.
	resp = doGet(t, fmt.Sprintf("/api/members/%d/orders/%d", memberID, order.ID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", resp.StatusCode)
	}
	detail := decodeBody[orderDetailResponse](t, resp)
	resp.Body.Close()

	if len(detail.Items) != 2 {
		t.Fatalf("order items: got %d, want 2", len(detail.Items))
	}

	// Pending orders can be cancelled by their owner.
	resp = doPost(t, fmt.Sprintf("/api/members/%d/orders/%d/cancel", memberID, order.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel order: expected 200, got %d", resp.StatusCode)
	}
	cancelled := decodeBody[orderResponse](t, resp)
	resp.Body.Close()
	if cancelled.Status != "cancelled" {
		t.Errorf("cancelled status: got %q, want cancelled", cancelled.Status)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	resp := doPost(t, "/api/members/2/orders", map[string]any{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeBody[errorResponse](t, resp)
	if body.Message == "" {
		t.Error("expected an error message")
	}
}

func TestPlaceOrder_UnknownCouponStillSucceeds(t *testing.T) {
	const memberID = 2

	resp := doPost(t, fmt.Sprintf("/api/members/%d/cart/items", memberID),
		map[string]any{"product_id": 5, "quantity": 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add item: expected 204, got %d", resp.StatusCode)
	}

	resp = doPost(t, fmt.Sprintf("/api/members/%d/orders", memberID), map[string]any{
		"coupon_code": "NO-SUCH-CODE",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}
	order := decodeBody[orderResponse](t, resp)
	resp.Body.Close()

	if got := amount(t, order.DiscountAmount); got != 0 {
		t.Errorf("discount: got %v, want 0", got)
	}
	if got := amount(t, order.FinalAmount); got != 45.00 {
		t.Errorf("final: got %v, want 45.00", got)
	}
}

func TestAddToCart_OutOfStock(t *testing.T) {
	resp := doPost(t, "/api/members/3/cart/items", map[string]any{"product_id": 6, "quantity": 1})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCheckCoupon_BelowMinimum(t *testing.T) {
	resp := doPost(t, "/api/coupons/check", map[string]any{
		"code":         "SAVE20",
		"total_amount": "50",
		"store_id":     1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	check := decodeBody[checkCouponResponse](t, resp)
	if check.Valid {
		t.Fatal("expected invalid result for below-minimum total")
	}
	if !strings.Contains(check.Message, "at least") {
		t.Errorf("message %q does not mention the minimum", check.Message)
	}
}

func TestCheckCoupon_StoreScoped(t *testing.T) {
	// GROCER15 belongs to store 1; store 2 orders cannot use it.
	resp := doPost(t, "/api/coupons/check", map[string]any{
		"code":         "GROCER15",
		"total_amount": "100",
		"store_id":     2,
	})
	defer resp.Body.Close()

	check := decodeBody[checkCouponResponse](t, resp)
	if check.Valid {
		t.Fatal("expected store mismatch to be invalid")
	}

	resp2 := doPost(t, "/api/coupons/check", map[string]any{
		"code":         "GROCER15",
		"total_amount": "100",
		"store_id":     1,
	})
	defer resp2.Body.Close()

	check2 := decodeBody[checkCouponResponse](t, resp2)
	if !check2.Valid {
		t.Fatalf("expected matching store to be valid, got %q", check2.Message)
	}
	if got := amount(t, check2.DiscountAmount); got != 15 {
		t.Errorf("discount: got %v, want 15", got)
	}
}

func TestCancelOrder_WrongMember(t *testing.T) {
	const memberID = 3

	resp := doPost(t, fmt.Sprintf("/api/members/%d/cart/items", memberID),
		map[string]any{"product_id": 3, "quantity": 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add item: expected 204, got %d", resp.StatusCode)
	}

	resp = doPost(t, fmt.Sprintf("/api/members/%d/orders", memberID), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}
	order := decodeBody[orderResponse](t, resp)
	resp.Body.Close()

	// Another member cannot see, let alone cancel, this order.
	resp = doPost(t, fmt.Sprintf("/api/members/1/orders/%d/cancel", order.ID), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestOrderStatusLifecycle(t *testing.T) {
	const memberID = 2

	resp := doPost(t, fmt.Sprintf("/api/members/%d/cart/items", memberID),
		map[string]any{"product_id": 4, "quantity": 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add item: expected 204, got %d", resp.StatusCode)
	}

	resp = doPost(t, fmt.Sprintf("/api/members/%d/orders", memberID), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}
	order := decodeBody[orderResponse](t, resp)
	resp.Body.Close()

	statusPath := fmt.Sprintf("/api/orders/%d/status", order.ID)

	for _, next := range []string{"confirmed", "shipped", "delivered"} {
		resp := doPost(t, statusPath, map[string]any{"status": next})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s: expected 200, got %d", next, resp.StatusCode)
		}
		updated := decodeBody[orderResponse](t, resp)
		resp.Body.Close()
		if updated.Status != next {
			t.Fatalf("status: got %q, want %q", updated.Status, next)
		}
	}

	// Delivered is terminal.
	resp = doPost(t, statusPath, map[string]any{"status": "cancelled"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}
