package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wichananm65/mobcommerce-backend/internal/dbx"
)

// PostgresRepository stores users in the users table.
type PostgresRepository struct {
	db dbx.DBTX
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns = `id, first_name, last_name, email, password, age, role, created_at, updated_at`

	insertUserQuery = `
		INSERT INTO users (first_name, last_name, email, password, age, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	getUserByIDQuery    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	listUsersQuery      = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	updatePasswordQuery = `UPDATE users SET password = $1, updated_at = $2 WHERE id = $3`

	uniqueViolation = "23505"
)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	row := r.db.QueryRowContext(ctx, insertUserQuery,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Age, u.Role)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, getUserByEmailQuery, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, hash string, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, updatePasswordQuery, hash, updatedAt, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func scanUser(scanner rowScanner) (User, error) {
	var u User
	err := scanner.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Age,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
