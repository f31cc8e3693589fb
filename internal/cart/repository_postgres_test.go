package cart

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_AddIsSingleUpsert(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id, product_id)")).
		WithArgs(int64(1), "A", "Apple").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Add(context.Background(), 1, "A", "Apple"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Increment(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("SET quantity = quantity + 1")).
		WithArgs(int64(1), "A").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET quantity = quantity + 1")).
		WithArgs(int64(1), "B").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Increment(context.Background(), 1, "A"))
	assert.ErrorIs(t, repo.Increment(context.Background(), 1, "B"), ErrLineNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DecrementLocksRow(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(1), "A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(int64(9), 3))
	mock.ExpectExec(regexp.QuoteMeta(decrementLineQuery)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(1), "A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(int64(9), 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteLineByIDQuery)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(1), "A").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	ctx := context.Background()
	require.NoError(t, repo.Decrement(ctx, 1, "A"))
	require.NoError(t, repo.Decrement(ctx, 1, "A"))
	assert.ErrorIs(t, repo.Decrement(ctx, 1, "A"), ErrLineNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ItemsAndCount(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "product_id", "product_title", "quantity", "created_at", "updated_at"}).
		AddRow(int64(2), int64(1), "B", "Banana", 1, now, now).
		AddRow(int64(1), int64(1), "A", "Apple", 2, now.Add(-time.Minute), now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WithArgs(int64(1)).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(quantity), 0)")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

	items, err := repo.Items(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].ProductID)
	assert.Equal(t, 2, items[1].Quantity)

	n, err := repo.Count(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_RemoveAndClear(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(removeLineQuery)).
		WithArgs(int64(1), "A").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(clearCartQuery)).
		WithArgs(int64(1)).
		WillReturnError(errors.New("connection reset"))

	require.NoError(t, repo.Remove(context.Background(), 1, "A"))
	err := repo.Clear(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
	require.NoError(t, mock.ExpectationsWereMet())
}
