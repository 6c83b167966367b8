package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tasknest/tasknest/internal/errs"
	"github.com/tasknest/tasknest/internal/models"
)

// TokenStore persists issued refresh and access tokens. Lookups are keyed by
// the exact token string; values are stored verbatim, so callers must never
// log them.
type TokenStore struct{ db *DB }

func NewTokenStore(db *DB) *TokenStore { return &TokenStore{db: db} }

func (s *TokenStore) InsertRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	const q = `
INSERT INTO refresh_tokens (user_id, token, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, token, expires_at, created_at, updated_at`
	var rt models.RefreshToken
	err := s.db.Pool.QueryRow(ctx, q, userID, token, expiresAt).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt, &rt.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}
	return &rt, nil
}

func (s *TokenStore) FindRefresh(ctx context.Context, token string) (*models.RefreshToken, error) {
	const q = `
SELECT id, user_id, token, expires_at, created_at, updated_at
FROM refresh_tokens WHERE token = $1`
	var rt models.RefreshToken
	err := s.db.Pool.QueryRow(ctx, q, token).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt, &rt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RotateRefresh replaces a refresh token's value and expiry in place. The
// update is conditioned on the old value still matching, so of two concurrent
// rotations only one can win; the loser gets errs.ErrUnauthorized.
func (s *TokenStore) RotateRefresh(ctx context.Context, oldToken, newToken string, expiresAt time.Time) error {
	const q = `
UPDATE refresh_tokens
SET token = $2, expires_at = $3, updated_at = now()
WHERE token = $1`
	tag, err := s.db.Pool.Exec(ctx, q, oldToken, newToken, expiresAt)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrUnauthorized
	}
	return nil
}

func (s *TokenStore) DeleteRefreshByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens for user: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *TokenStore) DeleteRefreshByToken(ctx context.Context, token string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (s *TokenStore) RefreshTokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check refresh token: %w", err)
	}
	return exists, nil
}

func (s *TokenStore) InsertAccess(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.AccessToken, error) {
	const q = `
INSERT INTO access_tokens (user_id, token, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, token, expires_at, created_at, updated_at`
	var at models.AccessToken
	err := s.db.Pool.QueryRow(ctx, q, userID, token, expiresAt).
		Scan(&at.ID, &at.UserID, &at.Token, &at.ExpiresAt, &at.CreatedAt, &at.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert access token: %w", err)
	}
	return &at, nil
}

func (s *TokenStore) AccessTokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM access_tokens WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check access token: %w", err)
	}
	return exists, nil
}

// DeleteExpired removes refresh and access rows whose expiry has passed.
// Used by the cleanup worker.
func (s *TokenStore) DeleteExpired(ctx context.Context, now time.Time) (refresh, access int64, err error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, 0, fmt.Errorf("prune refresh tokens: %w", err)
	}
	refresh = tag.RowsAffected()

	tag, err = s.db.Pool.Exec(ctx, `DELETE FROM access_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return refresh, 0, fmt.Errorf("prune access tokens: %w", err)
	}
	return refresh, tag.RowsAffected(), nil
}

func (s *TokenStore) ListRefresh(ctx context.Context) ([]models.RefreshToken, error) {
	rows, err := s.db.Pool.Query(ctx, `
SELECT id, user_id, token, expires_at, created_at, updated_at
FROM refresh_tokens ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	defer rows.Close()

	var out []models.RefreshToken
	for rows.Next() {
		var rt models.RefreshToken
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (s *TokenStore) GetRefreshByID(ctx context.Context, id int64) (*models.RefreshToken, error) {
	const q = `
SELECT id, user_id, token, expires_at, created_at, updated_at
FROM refresh_tokens WHERE id = $1`
	var rt models.RefreshToken
	err := s.db.Pool.QueryRow(ctx, q, id).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt, &rt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &rt, nil
}

func (s *TokenStore) DeleteRefreshByID(ctx context.Context, id int64) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *TokenStore) ListAccess(ctx context.Context) ([]models.AccessToken, error) {
	rows, err := s.db.Pool.Query(ctx, `
SELECT id, user_id, token, expires_at, created_at, updated_at
FROM access_tokens ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list access tokens: %w", err)
	}
	defer rows.Close()

	var out []models.AccessToken
	for rows.Next() {
		var at models.AccessToken
		if err := rows.Scan(&at.ID, &at.UserID, &at.Token, &at.ExpiresAt, &at.CreatedAt, &at.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan access token: %w", err)
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

func (s *TokenStore) GetAccessByID(ctx context.Context, id int64) (*models.AccessToken, error) {
	const q = `
SELECT id, user_id, token, expires_at, created_at, updated_at
FROM access_tokens WHERE id = $1`
	var at models.AccessToken
	err := s.db.Pool.QueryRow(ctx, q, id).
		Scan(&at.ID, &at.UserID, &at.Token, &at.ExpiresAt, &at.CreatedAt, &at.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}
	return &at, nil
}

func (s *TokenStore) DeleteAccessByID(ctx context.Context, id int64) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM access_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
