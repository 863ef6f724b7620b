package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"userId": primitive.NewObjectID().Hex(),
		"email":  "asha@example.com",
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("token signing failed: %v", err)
	}
	return token
}

func roleGatedRouter(handlerRan *bool, allowedRoles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/report", RequireRole(testSecret, allowedRoles...), func(c *gin.Context) {
		*handlerRan = true
		c.JSON(http.StatusOK, gin.H{"report": "sales"})
	})
	return r
}

func TestRequireRoleBlocksDisallowedRoleBeforeHandler(t *testing.T) {
	handlerRan := false
	r := roleGatedRouter(&handlerRan, "seller", "admin")

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if handlerRan {
		t.Fatal("handler ran for a disallowed role")
	}
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a single JSON object: %v (body %q)", err, w.Body.String())
	}
	if body["code"] != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN code, got %q", body["code"])
	}
	if strings.Contains(w.Body.String(), "report") {
		t.Fatalf("handler output leaked to a forbidden caller: %q", w.Body.String())
	}
}

func TestRequireRoleAllowsListedRoles(t *testing.T) {
	for _, role := range []string{"seller", "admin"} {
		handlerRan := false
		r := roleGatedRouter(&handlerRan, "seller", "admin")

		req := httptest.NewRequest(http.MethodGet, "/report", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if !handlerRan {
			t.Fatalf("handler did not run for role %s", role)
		}
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for role %s, got %d", role, w.Code)
		}
	}
}

func TestRequireRoleRejectsMissingAndInvalidTokens(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "Bearer not-a-token"},
		{"wrong scheme", "Basic abc"},
	}

	for _, tc := range cases {
		handlerRan := false
		r := roleGatedRouter(&handlerRan, "seller")

		req := httptest.NewRequest(http.MethodGet, "/report", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if handlerRan {
			t.Fatalf("%s: handler ran without valid auth", tc.name)
		}
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tc.name, w.Code)
		}
	}
}

func TestUserAuthInjectsClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var gotRole string
	var gotUserID primitive.ObjectID
	r.GET("/me", UserAuth(testSecret), func(c *gin.Context) {
		gotRole = c.GetString("role")
		gotUserID = c.MustGet("userId").(primitive.ObjectID)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotRole != "user" {
		t.Fatalf("expected role user in context, got %q", gotRole)
	}
	if gotUserID.IsZero() {
		t.Fatal("userId missing from context")
	}
}
