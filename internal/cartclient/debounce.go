package cartclient

import (
	"context"
	"sync"
	"time"
)

const defaultDebounceWindow = time.Second

// QuantityUpdater coalesces rapid quantity changes into one server update per
// product. Each Set cancels the pending flush for that product and schedules a
// new one, so only the last value inside the window reaches the server.
type QuantityUpdater struct {
	client *Client
	window time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]int

	// OnError receives the flush failure for a product. After it fires the
	// updater refetches the server cart and delivers it via OnReconcile, so
	// the UI can fall back to the authoritative state.
	OnError     func(productID string, err error)
	OnReconcile func(CartView)
}

func NewQuantityUpdater(client *Client) *QuantityUpdater {
	return &QuantityUpdater{
		client:  client,
		window:  defaultDebounceWindow,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]int),
	}
}

// SetWindow overrides the debounce window. Zero or negative keeps the default.
func (u *QuantityUpdater) SetWindow(window time.Duration) {
	if window <= 0 {
		return
	}
	u.mu.Lock()
	u.window = window
	u.mu.Unlock()
}

// Set records the desired quantity for a product and (re)starts its flush
// timer. A quantity below 1 is rejected before any state or network change.
func (u *QuantityUpdater) Set(productID string, quantity int) error {
	if quantity < 1 {
		return validationError("quantity must be at least 1")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.pending[productID] = quantity
	if timer, ok := u.timers[productID]; ok {
		timer.Stop()
	}
	u.timers[productID] = time.AfterFunc(u.window, func() {
		u.flush(productID)
	})
	return nil
}

// Remove cancels any pending flush for the product and deletes the cart line
// immediately. The removal must not be overwritten by a stale quantity update.
func (u *QuantityUpdater) Remove(ctx context.Context, productID string) error {
	u.mu.Lock()
	if timer, ok := u.timers[productID]; ok {
		timer.Stop()
		delete(u.timers, productID)
	}
	delete(u.pending, productID)
	u.mu.Unlock()

	return u.client.RemoveFromCart(ctx, productID)
}

// Stop cancels every pending flush without sending anything.
func (u *QuantityUpdater) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for productID, timer := range u.timers {
		timer.Stop()
		delete(u.timers, productID)
		delete(u.pending, productID)
	}
}

func (u *QuantityUpdater) flush(productID string) {
	u.mu.Lock()
	quantity, ok := u.pending[productID]
	delete(u.pending, productID)
	delete(u.timers, productID)
	u.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := u.client.updateQuantity(ctx, productID, quantity); err != nil {
		if u.OnError != nil {
			u.OnError(productID, err)
		}
		u.reconcile(ctx)
	}
}

// reconcile refetches the authoritative cart after a failed flush so the
// caller never keeps showing a quantity the server rejected.
func (u *QuantityUpdater) reconcile(ctx context.Context) {
	if u.OnReconcile == nil {
		return
	}
	cart, err := u.client.FetchCart(ctx)
	if err != nil {
		return
	}
	u.OnReconcile(cart)
}
