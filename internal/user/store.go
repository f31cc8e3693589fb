package user

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the fixed bcrypt cost (2^10 rounds).
const HashCost = 10

// Hasher is the password hashing capability used by Store.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = HashCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// Store is the credential store: it normalizes emails and hashes passwords
// on the way into a Repository so plaintext is never persisted.
type Store struct {
	repo   Repository
	hasher Hasher
	now    func() time.Time
}

func NewStore(repo Repository, hasher Hasher) *Store {
	return &Store{repo: repo, hasher: hasher, now: func() time.Time { return time.Now().UTC() }}
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new user. It fails with ErrEmailExists when the
// normalized email is taken.
func (s *Store) Create(ctx context.Context, p Profile) (User, error) {
	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return User{}, err
	}
	role := p.Role
	if role == "" {
		role = "user"
	}
	now := s.now()
	return s.repo.Create(ctx, User{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        NormalizeEmail(p.Email),
		PasswordHash: hash,
		Age:          p.Age,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Store) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *Store) FindByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdatePassword hashes newPlain and replaces the stored hash.
func (s *Store) UpdatePassword(ctx context.Context, id int64, newPlain string) error {
	hash, err := s.hasher.Hash(newPlain)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash, s.now())
}

// ListAll returns every user, newest first.
func (s *Store) ListAll(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// CheckPassword reports whether plain matches u's stored hash.
func (s *Store) CheckPassword(u User, plain string) bool {
	return s.hasher.Compare(u.PasswordHash, plain) == nil
}
