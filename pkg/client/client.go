// Package client is a Go SDK for the MobCommerce API. It mirrors what the
// mobile app does: typed endpoint wrappers, a persisted bearer token, and
// small state holders for auth and cart.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 10 * time.Second

// User is the public profile returned by the API.
type User struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Age       int        `json:"age"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Session is returned by register and login.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Age       int    `json:"age"`
}

type ForgotResult struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}

// CartLine is one cart row as sent by the server.
type CartLine struct {
	ID           int64     `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Cart struct {
	Items []CartLine `json:"items"`
	Count int        `json:"count"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Client calls the MobCommerce API and keeps the bearer token in a TokenStore.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL (e.g. "http://localhost:3000"). A nil
// store keeps credentials in memory.
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		store:   store,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Store() TokenStore { return c.store }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	creds, err := c.store.Load()
	if err != nil {
		return err
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		if err := c.store.Clear(); err != nil {
			return err
		}
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return &APIError{Status: res.StatusCode, Message: "invalid response body"}
	}
	if res.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return &APIError{Status: res.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) saveSession(s Session) error {
	u := s.User
	return c.store.Save(Credentials{Token: s.Token, User: &u})
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &s); err != nil {
		return Session{}, err
	}
	return s, c.saveSession(s)
}

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &s); err != nil {
		return Session{}, err
	}
	return s, c.saveSession(s)
}

// Logout forgets the stored credentials. Tokens are stateless, so there is
// nothing to tell the server.
func (c *Client) Logout() error {
	return c.store.Clear()
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (ForgotResult, error) {
	var out ForgotResult
	err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email}, &out)
	return out, err
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", map[string]string{"token": token, "password": password}, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
		Count int    `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) Cart(ctx context.Context) (Cart, error) {
	return c.cartCall(ctx, http.MethodGet, "/api/cart", nil)
}

func (c *Client) AddToCart(ctx context.Context, productID, title string) (Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/add", map[string]string{"productId": productID, "productTitle": title})
}

func (c *Client) IncrementItem(ctx context.Context, productID string) (Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/increment", map[string]string{"productId": productID})
}

func (c *Client) DecrementItem(ctx context.Context, productID string) (Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/decrement", map[string]string{"productId": productID})
}

func (c *Client) RemoveItem(ctx context.Context, productID string) (Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/remove", map[string]string{"productId": productID})
}

func (c *Client) ClearCart(ctx context.Context) (Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/clear", nil)
}

func (c *Client) cartCall(ctx context.Context, method, path string, body any) (Cart, error) {
	var cart Cart
	if err := c.do(ctx, method, path, body, &cart); err != nil {
		return Cart{}, err
	}
	if cart.Items == nil {
		cart.Items = []CartLine{}
	}
	return cart, nil
}

// Health reports whether the server answers /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return &APIError{Status: res.StatusCode, Message: http.StatusText(res.StatusCode)}
	}
	return nil
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
