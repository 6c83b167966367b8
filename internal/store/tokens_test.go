package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
	"github.com/tasknest/tasknest/internal/errs"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var tokenCols = []string{"id", "user_id", "token", "expires_at", "created_at", "updated_at"}

func TestTokenStore_InsertRefresh(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewTokenStore(db)
	ctx := context.Background()
	exp := time.Now().Add(7 * 24 * time.Hour)

	mock.ExpectQuery(`INSERT INTO refresh_tokens`).
		WithArgs(int64(42), "sometoken", exp).
		WillReturnRows(pgxmock.NewRows(tokenCols).
			AddRow(int64(1), int64(42), "sometoken", exp, time.Now(), time.Now()))

	rt, err := s.InsertRefresh(ctx, 42, "sometoken", exp)
	require.NoError(t, err)
	require.Equal(t, int64(42), rt.UserID)
	require.Equal(t, "sometoken", rt.Token)

	// Unique violation maps to ErrAlreadyExists.
	mock.ExpectQuery(`INSERT INTO refresh_tokens`).
		WithArgs(int64(42), "sometoken", exp).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = s.InsertRefresh(ctx, 42, "sometoken", exp)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestTokenStore_FindRefresh(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewTokenStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, user_id, token, expires_at, created_at, updated_at FROM refresh_tokens WHERE token = \$1`).
		WithArgs("sometoken").
		WillReturnRows(pgxmock.NewRows(tokenCols).
			AddRow(int64(1), int64(42), "sometoken", time.Now().Add(time.Hour), time.Now(), time.Now()))

	rt, err := s.FindRefresh(ctx, "sometoken")
	require.NoError(t, err)
	require.Equal(t, int64(42), rt.UserID)

	mock.ExpectQuery(`SELECT id, user_id, token, expires_at, created_at, updated_at FROM refresh_tokens WHERE token = \$1`).
		WithArgs("unknown").
		WillReturnError(pgx.ErrNoRows)
	_, err = s.FindRefresh(ctx, "unknown")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTokenStore_RotateRefresh(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewTokenStore(db)
	ctx := context.Background()
	exp := time.Now().Add(7 * 24 * time.Hour)

	mock.ExpectExec(`UPDATE refresh_tokens SET token = \$2, expires_at = \$3, updated_at = now\(\) WHERE token = \$1`).
		WithArgs("oldtoken", "newtoken", exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, s.RotateRefresh(ctx, "oldtoken", "newtoken", exp))

	// Rotation is compare-and-swap: if the old value is gone, nobody wins.
	mock.ExpectExec(`UPDATE refresh_tokens SET token = \$2, expires_at = \$3, updated_at = now\(\) WHERE token = \$1`).
		WithArgs("oldtoken", "newertoken", exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := s.RotateRefresh(ctx, "oldtoken", "newertoken", exp)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestTokenStore_DeleteRefreshByUser(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewTokenStore(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id = \$1`).
		WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	n, err := s.DeleteRefreshByUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	// No rows is still success; logout is idempotent.
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id = \$1`).
		WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	n, err = s.DeleteRefreshByUser(ctx, 42)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestTokenStore_ExistenceChecks(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewTokenStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM access_tokens WHERE token = \$1\)`).
		WithArgs("tok").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	exists, err := s.AccessTokenExists(ctx, "tok")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM refresh_tokens WHERE token = \$1\)`).
		WithArgs("tok").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	exists, err = s.RefreshTokenExists(ctx, "tok")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestTokenStore_DeleteExpired(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewTokenStore(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM access_tokens WHERE expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	refresh, access, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(3), refresh)
	require.Equal(t, int64(5), access)
}
