package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func TestValidateShippingAddressRejectsIncomplete(t *testing.T) {
	complete := addressPayload{Street: "12 Potter Lane", City: "Jaipur", State: "RJ", Zip: "302001"}

	blank := func(field string) addressPayload {
		addr := complete
		switch field {
		case "street":
			addr.Street = "  "
		case "city":
			addr.City = ""
		case "state":
			addr.State = ""
		case "zip":
			addr.Zip = "\t"
		}
		return addr
	}

	for _, field := range []string{"street", "city", "state", "zip"} {
		if _, err := validateShippingAddress(blank(field)); err == nil {
			t.Fatalf("expected validation error for empty %s", field)
		}
	}
}

func TestValidateShippingAddressDefaultsCountry(t *testing.T) {
	shipping, err := validateShippingAddress(addressPayload{
		Street: "12 Potter Lane", City: "Jaipur", State: "RJ", Zip: "302001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipping.Country != "IN" {
		t.Fatalf("expected country IN, got %q", shipping.Country)
	}
}

func TestBuildPendingOrderSnapshotsPrices(t *testing.T) {
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()

	priced := []PricedLine{{
		Line:    models.CartLine{ProductID: productID, Quantity: 2},
		Product: models.Product{ID: productID, Title: "Terracotta Vase", Price: 100},
	}}

	shipping := models.ShippingAddress{Street: "12 Potter Lane", City: "Jaipur", State: "RJ", Zip: "302001", Country: "IN"}

	order, err := buildPendingOrder(userID, priced, shipping, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Status != models.OrderStatusPending {
		t.Fatalf("expected pending status, got %q", order.Status)
	}
	if order.PaymentMethod != "card" {
		t.Fatalf("expected default payment method card, got %q", order.PaymentMethod)
	}
	if len(order.Items) != 1 || order.Items[0].Price != 100 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected item snapshot: %+v", order.Items)
	}
	if order.Subtotal != 200 || order.Tax != 36 || order.DeliveryFee != 40 || order.TotalAmount != 276 {
		t.Fatalf("unexpected totals: %+v", order)
	}
}

func TestBuildPendingOrderRejectsEmptyCart(t *testing.T) {
	shipping := models.ShippingAddress{Street: "a", City: "b", State: "c", Zip: "d", Country: "IN"}
	if _, err := buildPendingOrder(primitive.NewObjectID(), nil, shipping, "card"); err == nil {
		t.Fatal("expected error for empty cart")
	}
}

func TestBuildPendingOrderRejectsNonPositiveQuantity(t *testing.T) {
	productID := primitive.NewObjectID()
	priced := []PricedLine{{
		Line:    models.CartLine{ProductID: productID, Quantity: 0},
		Product: models.Product{ID: productID, Title: "Bowl", Price: 50},
	}}
	shipping := models.ShippingAddress{Street: "a", City: "b", State: "c", Zip: "d", Country: "IN"}

	if _, err := buildPendingOrder(primitive.NewObjectID(), priced, shipping, "card"); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func webhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/orders/webhook", StripeWebhook(nil, "whsec_test"))
	return r
}

func TestStripeWebhookRejectsOversizedPayload(t *testing.T) {
	r := webhookRouter()

	body := bytes.Repeat([]byte("x"), maxWebhookPayload+1)
	req := httptest.NewRequest(http.MethodPost, "/api/orders/webhook", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized payload, got %d", w.Code)
	}
}

func TestStripeWebhookRejectsUnsignedPayload(t *testing.T) {
	r := webhookRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/orders/webhook", strings.NewReader(`{"type":"payment_intent.succeeded"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing signature, got %d", w.Code)
	}
}
