package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// wishlistRouter wires a handler behind a stub auth middleware. The nil
// database is never reached on the validation paths under test.
func wishlistRouter(path string, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST(path, func(c *gin.Context) {
		c.Set("userId", primitive.NewObjectID())
	}, handler)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWishlistHandlersRejectMissingProductID(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		handler gin.HandlerFunc
	}{
		{"add", "/wishlist/add", AddToWishlist(nil)},
		{"remove", "/wishlist/remove", RemoveFromWishlist(nil)},
	}

	for _, tc := range cases {
		r := wishlistRouter(tc.path, tc.handler)
		w := postJSON(r, tc.path, `{}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 for missing productId, got %d", tc.name, w.Code)
		}

		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: invalid error body: %v", tc.name, err)
		}
		if body["code"] != "VALIDATION" {
			t.Fatalf("%s: expected VALIDATION code, got %v", tc.name, body["code"])
		}
	}
}

func TestWishlistHandlersRejectMalformedProductID(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		handler gin.HandlerFunc
	}{
		{"add", "/wishlist/add", AddToWishlist(nil)},
		{"remove", "/wishlist/remove", RemoveFromWishlist(nil)},
	}

	for _, tc := range cases {
		r := wishlistRouter(tc.path, tc.handler)
		w := postJSON(r, tc.path, `{"productId": "not-a-hex-id"}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 for malformed productId, got %d", tc.name, w.Code)
		}

		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: invalid error body: %v", tc.name, err)
		}
		if body["code"] != "VALIDATION" {
			t.Fatalf("%s: expected VALIDATION code, got %v", tc.name, body["code"])
		}
	}
}

func TestWishlistAddMutationIsIdempotent(t *testing.T) {
	productID := primitive.NewObjectID()
	update := wishlistAddUpdate(productID)

	addToSet, ok := update["$addToSet"].(bson.M)
	if !ok {
		t.Fatalf("add mutation must use $addToSet, got %+v", update)
	}
	if addToSet["wishlist"] != productID {
		t.Fatalf("expected wishlist $addToSet of %s, got %+v", productID.Hex(), addToSet)
	}
	if _, accumulates := update["$push"]; accumulates {
		t.Fatal("add mutation must not $push; duplicates would accumulate")
	}
}

func TestWishlistRemoveMutationIsRetriable(t *testing.T) {
	productID := primitive.NewObjectID()
	update := wishlistRemoveUpdate(productID)

	pull, ok := update["$pull"].(bson.M)
	if !ok {
		t.Fatalf("remove mutation must use $pull, got %+v", update)
	}
	if pull["wishlist"] != productID {
		t.Fatalf("expected wishlist $pull of %s, got %+v", productID.Hex(), pull)
	}
}
