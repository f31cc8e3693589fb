package user

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
)

// Repository persists users. Emails arrive already normalized.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	UpdatePassword(ctx context.Context, id int64, hash string, updatedAt time.Time) error
	List(ctx context.Context) ([]User, error)
}

// InMemoryRepository is used for tests and STORE=memory.
type InMemoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]User
	emails map[string]int64
	nextID int64
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make(map[int64]User, len(seed)),
		emails: make(map[string]int64, len(seed)),
		nextID: 1,
	}
	for _, u := range seed {
		repo.users[u.ID] = u
		repo.emails[u.Email] = u.ID
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
	}
	return repo
}

func (r *InMemoryRepository) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.emails[u.Email]; ok {
		return User{}, ErrEmailExists
	}
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = u
	r.emails[u.Email] = u.ID
	return u, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryRepository) UpdatePassword(ctx context.Context, id int64, hash string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = updatedAt
	r.users[id] = u
	return nil
}

// List returns users newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
