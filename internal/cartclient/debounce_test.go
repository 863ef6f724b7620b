package cartclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type cartUpdate struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// countingServer records every cart mutation the client sends.
type countingServer struct {
	updateCount int64
	removeCount int64
	totalCount  int64

	mu      sync.Mutex
	updates []cartUpdate

	failUpdates bool
}

func (s *countingServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/cart/update", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.totalCount, 1)
		atomic.AddInt64(&s.updateCount, 1)

		var update cartUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.updates = append(s.updates, update)
		s.mu.Unlock()

		if s.failUpdates {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "db error", "code": "SERVER_ERROR"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})
	mux.HandleFunc("/api/users/cart/remove", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.totalCount, 1)
		atomic.AddInt64(&s.removeCount, 1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})
	mux.HandleFunc("/api/users/cart", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.totalCount, 1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(CartView{
			Cart: []CartLineView{
				{Product: ProductView{ID: "p1", Title: "Clay Pot", Price: 100}, Quantity: 2},
			},
			Totals: Totals{Subtotal: 200, Tax: 36, DeliveryFee: 40, Total: 276},
		})
	})
	return mux
}

func signedInClient(baseURL string) *Client {
	client := New(baseURL)
	client.Session.Start("test-token", SessionUser{ID: "u1", Name: "Asha", Email: "asha@example.com", Role: "user"})
	return client
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRapidQuantityChangesCoalesceIntoOneUpdate(t *testing.T) {
	backend := &countingServer{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	updater := NewQuantityUpdater(signedInClient(server.URL))
	updater.SetWindow(50 * time.Millisecond)
	defer updater.Stop()

	for _, quantity := range []int{2, 3, 5} {
		if err := updater.Set("p1", quantity); err != nil {
			t.Fatalf("Set(%d) returned error: %v", quantity, err)
		}
	}

	waitFor(t, 2*time.Second, func() bool {
		return atomic.LoadInt64(&backend.updateCount) == 1
	})
	// Give a trailing window for any stray second flush.
	time.Sleep(150 * time.Millisecond)

	if got := atomic.LoadInt64(&backend.updateCount); got != 1 {
		t.Fatalf("expected exactly 1 update request, got %d", got)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.updates) != 1 {
		t.Fatalf("expected 1 recorded update, got %d", len(backend.updates))
	}
	if backend.updates[0].ProductID != "p1" || backend.updates[0].Quantity != 5 {
		t.Fatalf("expected final quantity 5 for p1, got %+v", backend.updates[0])
	}
}

func TestSetRejectsQuantityBelowOneWithoutNetworkCall(t *testing.T) {
	backend := &countingServer{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	updater := NewQuantityUpdater(signedInClient(server.URL))
	updater.SetWindow(20 * time.Millisecond)
	defer updater.Stop()

	for _, quantity := range []int{0, -1} {
		err := updater.Set("p1", quantity)
		if err == nil {
			t.Fatalf("Set(%d) should fail", quantity)
		}
		if KindOf(err) != KindValidation {
			t.Fatalf("Set(%d): expected VALIDATION, got %s", quantity, KindOf(err))
		}
	}

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt64(&backend.totalCount); got != 0 {
		t.Fatalf("expected zero requests, got %d", got)
	}
}

func TestRemoveCancelsPendingFlush(t *testing.T) {
	backend := &countingServer{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	updater := NewQuantityUpdater(signedInClient(server.URL))
	updater.SetWindow(100 * time.Millisecond)
	defer updater.Stop()

	if err := updater.Set("p1", 4); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := updater.Remove(context.Background(), "p1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	time.Sleep(250 * time.Millisecond)

	if got := atomic.LoadInt64(&backend.removeCount); got != 1 {
		t.Fatalf("expected 1 remove request, got %d", got)
	}
	if got := atomic.LoadInt64(&backend.updateCount); got != 0 {
		t.Fatalf("removal must not be followed by a stale update, got %d updates", got)
	}
}

func TestFailedFlushReconcilesFromServerCart(t *testing.T) {
	backend := &countingServer{failUpdates: true}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	updater := NewQuantityUpdater(signedInClient(server.URL))
	updater.SetWindow(20 * time.Millisecond)
	defer updater.Stop()

	var errCount int64
	reconciled := make(chan CartView, 1)
	updater.OnError = func(productID string, err error) {
		atomic.AddInt64(&errCount, 1)
		if productID != "p1" {
			t.Errorf("expected error for p1, got %s", productID)
		}
		if KindOf(err) != KindServerError {
			t.Errorf("expected SERVER_ERROR, got %s", KindOf(err))
		}
	}
	updater.OnReconcile = func(cart CartView) {
		reconciled <- cart
	}

	if err := updater.Set("p1", 9); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	select {
	case cart := <-reconciled:
		if len(cart.Cart) != 1 || cart.Cart[0].Quantity != 2 {
			t.Fatalf("expected server cart with quantity 2, got %+v", cart.Cart)
		}
		if cart.Totals.Total != 276 {
			t.Fatalf("expected reconciled total 276, got %.2f", cart.Totals.Total)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reconcile callback never fired")
	}

	if got := atomic.LoadInt64(&errCount); got != 1 {
		t.Fatalf("expected 1 error callback, got %d", got)
	}
}
