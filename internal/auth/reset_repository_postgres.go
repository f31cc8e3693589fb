package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wichananm65/mobcommerce-backend/internal/dbx"
)

// PostgresResetRepository stores reset grants in password_reset_tokens.
type PostgresResetRepository struct {
	db dbx.DBTX
}

func NewPostgresResetRepository(db dbx.DBTX) *PostgresResetRepository {
	return &PostgresResetRepository{db: db}
}

const (
	insertResetTokenQuery = `
		INSERT INTO password_reset_tokens (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	// single statement so two concurrent redemptions cannot both succeed
	consumeResetTokenQuery = `
		UPDATE password_reset_tokens
		SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING user_id, expires_at
	`
)

func (r *PostgresResetRepository) Create(ctx context.Context, t ResetToken) error {
	if _, err := r.db.ExecContext(ctx, insertResetTokenQuery, t.TokenHash, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresResetRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (ResetToken, error) {
	t := ResetToken{TokenHash: tokenHash, UsedAt: &now}
	err := r.db.QueryRowContext(ctx, consumeResetTokenQuery, tokenHash, now).Scan(&t.UserID, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResetToken{}, ErrResetTokenNotFound
		}
		return ResetToken{}, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
