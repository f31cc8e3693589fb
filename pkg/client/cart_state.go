package client

import (
	"context"
	"sync"
)

// Item is the client-side view of a cart line.
type Item struct {
	ID    string
	Title string
	Qty   int
}

// CartState mirrors the server cart. Every mutation replaces the local
// copy with the snapshot the server returns.
type CartState struct {
	client *Client
	auth   *AuthState

	mu    sync.RWMutex
	items []Item
	count int
}

// NewCartState returns an empty cart bound to auth.
func NewCartState(c *Client, auth *AuthState) *CartState {
	return &CartState{client: c, auth: auth}
}

func (s *CartState) Refresh(ctx context.Context) error {
	return s.apply(ctx, func() (Cart, error) { return s.client.Cart(ctx) })
}

func (s *CartState) Add(ctx context.Context, id, title string) error {
	return s.apply(ctx, func() (Cart, error) { return s.client.AddToCart(ctx, id, title) })
}

func (s *CartState) Inc(ctx context.Context, id string) error {
	return s.apply(ctx, func() (Cart, error) { return s.client.IncrementItem(ctx, id) })
}

func (s *CartState) Dec(ctx context.Context, id string) error {
	return s.apply(ctx, func() (Cart, error) { return s.client.DecrementItem(ctx, id) })
}

func (s *CartState) Remove(ctx context.Context, id string) error {
	return s.apply(ctx, func() (Cart, error) { return s.client.RemoveItem(ctx, id) })
}

func (s *CartState) Clear(ctx context.Context) error {
	return s.apply(ctx, func() (Cart, error) { return s.client.ClearCart(ctx) })
}

func (s *CartState) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.items...)
}

func (s *CartState) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *CartState) apply(ctx context.Context, call func() (Cart, error)) error {
	if !s.auth.IsAuthenticated() {
		s.reset()
		return ErrNotAuthenticated
	}
	cart, err := call()
	if err != nil {
		if IsUnauthorized(err) {
			s.auth.set(nil, false)
			s.reset()
		}
		return err
	}

	items := make([]Item, 0, len(cart.Items))
	for _, l := range cart.Items {
		items = append(items, Item{ID: l.ProductID, Title: l.ProductTitle, Qty: l.Quantity})
	}
	s.mu.Lock()
	s.items = items
	s.count = cart.Count
	s.mu.Unlock()
	return nil
}

func (s *CartState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.count = 0
}
