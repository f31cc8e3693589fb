package cart

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/wichananm65/mobcommerce-backend/internal/apperr"
)

// Service applies a mutation and then reads the cart back. The items and
// count reads are separate statements, so under concurrent writes for the
// same user they may observe different states.
type Service struct {
	repo Repository
}

// NewService builds a cart service over repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validateProductID(productID string) error {
	if strings.TrimSpace(productID) == "" {
		return apperr.Validation("Product ID is required")
	}
	if utf8.RuneCountInString(productID) > MaxProductIDLength {
		return apperr.Validation("Product ID is too long")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, userID int64) (Snapshot, error) {
	return s.snapshot(ctx, userID, "Server error fetching cart")
}

func (s *Service) Add(ctx context.Context, userID int64, productID, title string) (Snapshot, error) {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(title) == "" {
		return Snapshot{}, apperr.Validation("Product ID and title are required")
	}
	if err := validateProductID(productID); err != nil {
		return Snapshot{}, err
	}
	if utf8.RuneCountInString(title) > MaxProductTitleLength {
		return Snapshot{}, apperr.Validation("Product title is too long")
	}
	return s.mutate(ctx, userID, "Server error adding to cart", func() error {
		return s.repo.Add(ctx, userID, productID, title)
	})
}

func (s *Service) Increment(ctx context.Context, userID int64, productID string) (Snapshot, error) {
	if err := validateProductID(productID); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(ctx, userID, "Server error incrementing item", func() error {
		return s.repo.Increment(ctx, userID, productID)
	})
}

func (s *Service) Decrement(ctx context.Context, userID int64, productID string) (Snapshot, error) {
	if err := validateProductID(productID); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(ctx, userID, "Server error decrementing item", func() error {
		return s.repo.Decrement(ctx, userID, productID)
	})
}

func (s *Service) Remove(ctx context.Context, userID int64, productID string) (Snapshot, error) {
	if err := validateProductID(productID); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(ctx, userID, "Server error removing item", func() error {
		return s.repo.Remove(ctx, userID, productID)
	})
}

func (s *Service) Clear(ctx context.Context, userID int64) (Snapshot, error) {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return Snapshot{}, apperr.Internal("Server error clearing cart", err)
	}
	return Snapshot{Items: []Line{}, Count: 0}, nil
}

func (s *Service) mutate(ctx context.Context, userID int64, failMsg string, apply func() error) (Snapshot, error) {
	if err := apply(); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return Snapshot{}, apperr.NotFound("Cart item not found")
		}
		return Snapshot{}, apperr.Internal(failMsg, err)
	}
	return s.snapshot(ctx, userID, failMsg)
}

func (s *Service) snapshot(ctx context.Context, userID int64, failMsg string) (Snapshot, error) {
	items, err := s.repo.Items(ctx, userID)
	if err != nil {
		return Snapshot{}, apperr.Internal(failMsg, err)
	}
	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		return Snapshot{}, apperr.Internal(failMsg, err)
	}
	if items == nil {
		items = []Line{}
	}
	return Snapshot{Items: items, Count: count}, nil
}
