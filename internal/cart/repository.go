package cart

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository is the cart store. add is the only mutation that creates a
// line; increment and decrement fail with ErrLineNotFound on a miss.
type Repository interface {
	Add(ctx context.Context, userID int64, productID, title string) error
	Increment(ctx context.Context, userID int64, productID string) error
	// Decrement removes the line when its quantity is 1.
	Decrement(ctx context.Context, userID int64, productID string) error
	Remove(ctx context.Context, userID int64, productID string) error
	Clear(ctx context.Context, userID int64) error
	// Items returns the user's lines, newest created first.
	Items(ctx context.Context, userID int64) ([]Line, error)
	Count(ctx context.Context, userID int64) (int, error)
}

// InMemoryRepository is used for tests and STORE=memory.
type InMemoryRepository struct {
	mu     sync.RWMutex
	lines  map[int64]map[string]Line
	nextID int64
	now    func() time.Time
}

// NewInMemoryRepository returns an empty cart store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		lines: make(map[int64]map[string]Line),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Add(ctx context.Context, userID int64, productID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byProduct, ok := r.lines[userID]
	if !ok {
		byProduct = make(map[string]Line)
		r.lines[userID] = byProduct
	}
	now := r.now()
	if l, ok := byProduct[productID]; ok {
		l.Quantity++
		l.UpdatedAt = now
		byProduct[productID] = l
		return nil
	}
	r.nextID++
	byProduct[productID] = Line{
		ID:           r.nextID,
		UserID:       userID,
		ProductID:    productID,
		ProductTitle: title,
		Quantity:     1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return nil
}

func (r *InMemoryRepository) Increment(ctx context.Context, userID int64, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lines[userID][productID]
	if !ok {
		return ErrLineNotFound
	}
	l.Quantity++
	l.UpdatedAt = r.now()
	r.lines[userID][productID] = l
	return nil
}

func (r *InMemoryRepository) Decrement(ctx context.Context, userID int64, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lines[userID][productID]
	if !ok {
		return ErrLineNotFound
	}
	if l.Quantity <= 1 {
		delete(r.lines[userID], productID)
		return nil
	}
	l.Quantity--
	l.UpdatedAt = r.now()
	r.lines[userID][productID] = l
	return nil
}

func (r *InMemoryRepository) Remove(ctx context.Context, userID int64, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines[userID], productID)
	return nil
}

func (r *InMemoryRepository) Clear(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines, userID)
	return nil
}

func (r *InMemoryRepository) Items(ctx context.Context, userID int64) ([]Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Line, 0, len(r.lines[userID]))
	for _, l := range r.lines[userID] {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) Count(ctx context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, l := range r.lines[userID] {
		total += l.Quantity
	}
	return total, nil
}
