package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/mobcommerce-backend/internal/auth"
	"github.com/wichananm65/mobcommerce-backend/internal/cart"
	"github.com/wichananm65/mobcommerce-backend/internal/config"
	"github.com/wichananm65/mobcommerce-backend/internal/server"
	"github.com/wichananm65/mobcommerce-backend/internal/user"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	app := server.New(config.Config{
		JWTSecret:        "client-test",
		JWTExpiresIn:     time.Hour,
		ResetTokenTTL:    time.Hour,
		ExposeResetToken: true,
		AuthRateLimit:    100,
		AuthRateWindow:   time.Minute,
	}, server.Deps{
		Users:  user.NewInMemoryRepository(nil),
		Carts:  cart.NewInMemoryRepository(),
		Resets: auth.NewInMemoryResetRepository(),
		Hasher: user.BcryptHasher{Cost: bcrypt.MinCost},
	})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv
}

var ada = RegisterRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "secret1", Age: 36}

func TestClient_AuthAndCartFlow(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c := New(srv.URL, nil)

	require.NoError(t, c.Health(ctx))

	s, err := c.Register(ctx, ada)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)

	creds, err := c.Store().Load()
	require.NoError(t, err)
	assert.Equal(t, s.Token, creds.Token)
	require.NotNil(t, creds.User)
	assert.Equal(t, "ada@example.com", creds.User.Email)

	p, err := c.Profile(ctx)
	require.NoError(t, err)
	require.NotNil(t, p.CreatedAt)

	crt, err := c.AddToCart(ctx, "A", "Apple")
	require.NoError(t, err)
	assert.Equal(t, 1, crt.Count)

	_, err = c.IncrementItem(ctx, "ghost")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	crt, err = c.ClearCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, crt.Items)
	assert.NotNil(t, crt.Items)
}

func TestClient_ResetPassword(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c := New(srv.URL, nil)
	_, err := c.Register(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, c.Logout())

	res, err := c.ForgotPassword(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, res.ResetToken)
	require.NoError(t, c.ResetPassword(ctx, res.ResetToken, "brandnew"))

	_, err = c.Login(ctx, "ada@example.com", "secret1")
	assert.True(t, IsUnauthorized(err))
	_, err = c.Login(ctx, "ada@example.com", "brandnew")
	assert.NoError(t, err)
}

func TestClient_401ClearsStoredCredentials(t *testing.T) {
	cases := map[string]struct {
		contentType string
		body        string
	}{
		"api envelope": {"application/json", `{"success":false,"error":"Token is invalid or expired. Authorization denied."}`},
		"gateway text": {"text/plain", "Unauthorized"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			store := NewMemoryStore()
			require.NoError(t, store.Save(Credentials{Token: "stale", User: &User{ID: 1}}))
			c := New(srv.URL, store)

			_, err := c.Profile(context.Background())
			require.Error(t, err)
			assert.True(t, IsUnauthorized(err))

			creds, err := store.Load()
			require.NoError(t, err)
			assert.Empty(t, creds.Token)
			assert.Nil(t, creds.User)
		})
	}
}

func TestClient_Unavailable(t *testing.T) {
	c := New("http://127.0.0.1:1", nil, WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
	_, err := c.Cart(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
