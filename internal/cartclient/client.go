// Package cartclient is a Go client for the storefront API carrying the
// browser-side cart behavior: a typed session, debounced quantity updates,
// address validation before payment-intent creation, and error-kind
// classification for every failure.
package cartclient

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	http    *resty.Client
	Session *Session
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		Session: &Session{},
	}
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type ProductView struct {
	ID    string  `json:"_id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

type CartLineView struct {
	Product  ProductView `json:"product"`
	Quantity int         `json:"quantity"`
}

type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

type CartView struct {
	Cart   []CartLineView `json:"cart"`
	Totals Totals         `json:"totals"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type CheckoutResult struct {
	ClientSecret string  `json:"clientSecret"`
	OrderID      string  `json:"orderId"`
	Amount       float64 `json:"amount"`
}

// Login exchanges credentials for a bearer token and role-tagged user record
// and starts the session.
func (c *Client) Login(ctx context.Context, email, password string) (SessionUser, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/api/users/login")
	if clientErr := classify(resp, err); clientErr != nil {
		return SessionUser{}, clientErr
	}

	c.Session.Start(out.Token, out.User)
	return out.User, nil
}

// Logout drops the session. Purely local; the token simply stops being sent.
func (c *Client) Logout() {
	c.Session.Clear()
}

// FetchCart retrieves the authoritative server cart with its price breakdown.
func (c *Client) FetchCart(ctx context.Context) (CartView, error) {
	req, clientErr := c.authRequest(ctx)
	if clientErr != nil {
		return CartView{}, clientErr
	}

	var out CartView
	resp, err := req.SetResult(&out).Get("/api/users/cart")
	if clientErr := classify(resp, err); clientErr != nil {
		return CartView{}, clientErr
	}
	return out, nil
}

func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return validationError("quantity must be at least 1")
	}

	req, clientErr := c.authRequest(ctx)
	if clientErr != nil {
		return clientErr
	}

	resp, err := req.
		SetBody(map[string]interface{}{"productId": productID, "quantity": quantity}).
		Post("/api/users/cart/add")
	return classify(resp, err)
}

// RemoveFromCart is immediate and authoritative; use QuantityUpdater.Remove
// when a debounced update may still be pending for the product.
func (c *Client) RemoveFromCart(ctx context.Context, productID string) error {
	req, clientErr := c.authRequest(ctx)
	if clientErr != nil {
		return clientErr
	}

	resp, err := req.
		SetBody(map[string]string{"productId": productID}).
		Delete("/api/users/cart/remove")
	return classify(resp, err)
}

func (c *Client) updateQuantity(ctx context.Context, productID string, quantity int) error {
	req, clientErr := c.authRequest(ctx)
	if clientErr != nil {
		return clientErr
	}

	resp, err := req.
		SetBody(map[string]interface{}{"productId": productID, "quantity": quantity}).
		Post("/api/users/cart/update")
	return classify(resp, err)
}

// Checkout validates the shipping address locally and only then requests a
// payment intent. An incomplete address never produces a network call.
func (c *Client) Checkout(ctx context.Context, addr Address) (CheckoutResult, error) {
	if strings.TrimSpace(addr.Street) == "" ||
		strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.State) == "" ||
		strings.TrimSpace(addr.Zip) == "" {
		return CheckoutResult{}, validationError("please enter a complete delivery address")
	}

	req, clientErr := c.authRequest(ctx)
	if clientErr != nil {
		return CheckoutResult{}, clientErr
	}

	var out CheckoutResult
	resp, err := req.
		SetBody(map[string]interface{}{
			"customerAddress": map[string]string{
				"street":  addr.Street,
				"city":    addr.City,
				"state":   addr.State,
				"zip":     addr.Zip,
				"country": "IN",
			},
			"paymentMethod": "card",
		}).
		SetResult(&out).
		Post("/api/orders/create-payment-intent")
	if clientErr := classify(resp, err); clientErr != nil {
		return CheckoutResult{}, clientErr
	}
	return out, nil
}

func (c *Client) authRequest(ctx context.Context) (*resty.Request, *Error) {
	token, ok := c.Session.Token()
	if !ok {
		return nil, &Error{Kind: KindUnauthorized, Message: "not signed in"}
	}

	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetError(&apiError{}), nil
}

// classify maps a resty outcome to an error kind: transport failures are
// NETWORK_FAILURE, 401 is UNAUTHORIZED, other 4xx are VALIDATION, 5xx are
// SERVER_ERROR. The server's own code field wins when present.
func classify(resp *resty.Response, err error) error {
	if err != nil {
		return &Error{Kind: KindNetworkFailure, Err: err}
	}
	if resp == nil || !resp.IsError() {
		return nil
	}

	message := ""
	if body, ok := resp.Error().(*apiError); ok && body != nil {
		message = body.Error
		switch ErrorKind(body.Code) {
		case KindValidation, KindUnauthorized, KindServerError:
			return &Error{Kind: ErrorKind(body.Code), Message: message}
		}
	}

	switch {
	case resp.StatusCode() == 401:
		return &Error{Kind: KindUnauthorized, Message: message}
	case resp.StatusCode() >= 500:
		return &Error{Kind: KindServerError, Message: message}
	default:
		return &Error{Kind: KindValidation, Message: message}
	}
}
