// Package token issues and verifies the bearer credential handed out at
// register/login. Tokens are stateless HS256 JWTs; there is no revocation
// list, so a token stays valid until it expires.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrExpired   = errors.New("token expired")
	ErrMalformed = errors.New("token malformed")
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the authenticated caller decoded from a verified token.
type Identity struct {
	UserID int64
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for userID that expires after the configured TTL.
func (i *Issuer) Issue(userID int64, role string) (string, error) {
	if role == "" {
		role = RoleUser
	}
	now := i.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(i.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns the identity it carries.
// It fails with ErrExpired or ErrMalformed.
func (i *Issuer) Verify(raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, i.Keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !tok.Valid {
		return Identity{}, ErrMalformed
	}
	return IdentityFromToken(tok)
}

// SigningKey returns the HMAC secret tokens are signed with.
func (i *Issuer) SigningKey() []byte { return i.secret }

// Keyfunc hands the HMAC secret to the JWT parser and rejects any other
// signing algorithm.
func (i *Issuer) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return i.secret, nil
}

// IdentityFromToken extracts the user_id and role claims from an already
// verified token.
func IdentityFromToken(tok *jwt.Token) (Identity, error) {
	if tok == nil {
		return Identity{}, ErrMalformed
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrMalformed
	}

	var id int64
	switch v := claims["user_id"].(type) {
	case float64:
		id = int64(v)
	case int64:
		id = v
	case int:
		id = int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Identity{}, ErrMalformed
		}
		id = n
	default:
		return Identity{}, ErrMalformed
	}
	if id <= 0 {
		return Identity{}, ErrMalformed
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleUser
	}
	return Identity{UserID: id, Role: role}, nil
}
