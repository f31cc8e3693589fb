package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wichananm65/mobcommerce-backend/internal/dbx"
)

// PostgresRepository stores cart lines in the cart_items table.
type PostgresRepository struct {
	db *sql.DB
}

const (
	lineColumns = `id, user_id, product_id, product_title, quantity, created_at, updated_at`

	// title is deliberately left alone on conflict: first title wins
	addLineQuery = `
		INSERT INTO cart_items (user_id, product_id, product_title, quantity)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = now()
	`
	incrementLineQuery = `
		UPDATE cart_items
		SET quantity = quantity + 1, updated_at = now()
		WHERE user_id = $1 AND product_id = $2
	`
	lockLineQuery = `
		SELECT id, quantity FROM cart_items
		WHERE user_id = $1 AND product_id = $2
		FOR UPDATE
	`
	decrementLineQuery  = `UPDATE cart_items SET quantity = quantity - 1, updated_at = now() WHERE id = $1`
	deleteLineByIDQuery = `DELETE FROM cart_items WHERE id = $1`
	removeLineQuery     = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`
	clearCartQuery      = `DELETE FROM cart_items WHERE user_id = $1`
	listLinesQuery      = `SELECT ` + lineColumns + ` FROM cart_items WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	countQuery          = `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, userID int64, productID, title string) error {
	if _, err := r.db.ExecContext(ctx, addLineQuery, userID, productID, title); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Increment(ctx context.Context, userID int64, productID string) error {
	res, err := r.db.ExecContext(ctx, incrementLineQuery, userID, productID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *PostgresRepository) Decrement(ctx context.Context, userID int64, productID string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var id int64
		var qty int
		if err := tx.QueryRowContext(ctx, lockLineQuery, userID, productID).Scan(&id, &qty); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLineNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		query := decrementLineQuery
		if qty <= 1 {
			query = deleteLineByIDQuery
		}
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) Remove(ctx context.Context, userID int64, productID string) error {
	if _, err := r.db.ExecContext(ctx, removeLineQuery, userID, productID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, clearCartQuery, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Items(ctx context.Context, userID int64) ([]Line, error) {
	rows, err := r.db.QueryContext(ctx, listLinesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.ProductTitle, &l.Quantity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
