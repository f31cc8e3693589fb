// Package middleware holds the fiber middleware shared by every route group.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/mobcommerce-backend/internal/response"
	"github.com/wichananm65/mobcommerce-backend/internal/token"
)

const (
	// UserKey holds the verified *jwt.Token.
	UserKey = "user"
	// IdentityKey holds the token.Identity decoded from it.
	IdentityKey = "identity"
)

const msgTokenInvalid = "Token is invalid or expired. Authorization denied."

var ErrNoIdentity = errors.New("no authenticated identity")

// RequireAuth rejects requests without a valid bearer token. Missing,
// malformed, expired and wrongly signed tokens all get the same 401.
// With prefixes set, only paths under one of them are checked.
func RequireAuth(issuer *token.Issuer, prefixes ...string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    issuer.SigningKey(),
		SigningMethod: "HS256",
		ContextKey:    UserKey,
		Filter: func(c *fiber.Ctx) bool {
			if len(prefixes) == 0 {
				return false
			}
			p := c.Path()
			for _, prefix := range prefixes {
				if p == prefix || strings.HasPrefix(p, prefix+"/") {
					return false
				}
			}
			return true
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return response.Fail(c, fiber.StatusUnauthorized, msgTokenInvalid)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			tok, _ := c.Locals(UserKey).(*jwt.Token)
			id, err := token.IdentityFromToken(tok)
			if err != nil {
				return response.Fail(c, fiber.StatusUnauthorized, msgTokenInvalid)
			}
			SetIdentity(c, id)
			return c.Next()
		},
	})
}

// SetIdentity stores the authenticated caller for downstream handlers.
func SetIdentity(c *fiber.Ctx, id token.Identity) {
	c.Locals(IdentityKey, id)
}

// IdentityFromCtx returns the caller stored by RequireAuth.
func IdentityFromCtx(c *fiber.Ctx) (token.Identity, error) {
	id, ok := c.Locals(IdentityKey).(token.Identity)
	if !ok || id.UserID <= 0 {
		return token.Identity{}, ErrNoIdentity
	}
	return id, nil
}
