// Package cart stores per-user cart lines and serves the cart endpoints.
package cart

import (
	"errors"
	"time"
)

var ErrLineNotFound = errors.New("cart line not found")

const (
	MaxProductIDLength    = 128
	MaxProductTitleLength = 255
)

// Line is one product in a user's cart. (UserID, ProductID) is unique.
type Line struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	ProductID    string    `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot is the cart as returned after every read or mutation.
type Snapshot struct {
	Items []Line `json:"items"`
	Count int    `json:"count"`
}
