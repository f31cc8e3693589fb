package client

import (
	"context"
	"sync"
)

// AuthState mirrors the signed-in user. It trusts the stored credentials
// until the server says otherwise.
type AuthState struct {
	client *Client

	mu    sync.RWMutex
	user  *User
	authd bool
}

func NewAuthState(c *Client) *AuthState {
	return &AuthState{client: c}
}

// Load restores state from the token store.
func (a *AuthState) Load() error {
	creds, err := a.client.store.Load()
	if err != nil {
		return err
	}
	a.set(creds.User, creds.Token != "" && creds.User != nil)
	return nil
}

func (a *AuthState) Login(ctx context.Context, email, password string) error {
	s, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.set(&s.User, true)
	return nil
}

func (a *AuthState) Register(ctx context.Context, in RegisterRequest) error {
	s, err := a.client.Register(ctx, in)
	if err != nil {
		return err
	}
	a.set(&s.User, true)
	return nil
}

func (a *AuthState) Logout() error {
	a.set(nil, false)
	return a.client.Logout()
}

// Refresh reloads the profile. A 401 signs the user out.
func (a *AuthState) Refresh(ctx context.Context) error {
	u, err := a.client.Profile(ctx)
	if err != nil {
		if IsUnauthorized(err) {
			a.set(nil, false)
		}
		return err
	}
	creds, err := a.client.store.Load()
	if err != nil {
		return err
	}
	creds.User = &u
	if err := a.client.store.Save(creds); err != nil {
		return err
	}
	a.set(&u, true)
	return nil
}

func (a *AuthState) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authd
}

// User returns a copy of the current user, or nil.
func (a *AuthState) User() *User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *AuthState) set(u *User, authd bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = u
	a.authd = authd
}
