package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

var ErrResetTokenNotFound = errors.New("reset token not found")

// ResetToken is a persisted password reset grant. Only the SHA-256 digest
// of the raw token is stored.
type ResetToken struct {
	TokenHash string
	UserID    int64
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// ResetRepository persists reset grants.
type ResetRepository interface {
	Create(ctx context.Context, t ResetToken) error
	// Consume marks the unexpired, unused grant for tokenHash as used and
	// returns it. It fails with ErrResetTokenNotFound otherwise.
	Consume(ctx context.Context, tokenHash string, now time.Time) (ResetToken, error)
}

func newResetToken() (raw string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type InMemoryResetRepository struct {
	mu     sync.Mutex
	tokens map[string]ResetToken
}

func NewInMemoryResetRepository() *InMemoryResetRepository {
	return &InMemoryResetRepository{tokens: make(map[string]ResetToken)}
}

func (r *InMemoryResetRepository) Create(ctx context.Context, t ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.TokenHash] = t
	return nil
}

func (r *InMemoryResetRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[tokenHash]
	if !ok || t.UsedAt != nil || !now.Before(t.ExpiresAt) {
		return ResetToken{}, ErrResetTokenNotFound
	}
	used := now
	t.UsedAt = &used
	r.tokens[tokenHash] = t
	return t, nil
}
