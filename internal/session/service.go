// Package session orchestrates the login, refresh and logout flows over the
// credential verifier, token issuer and token store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/errs"
	"github.com/tasknest/tasknest/internal/models"
)

// Refresh failure modes. Both unwrap to errs.ErrUnauthorized; the handler
// picks the response message, the client sees a 401 either way.
var (
	ErrInvalidRefreshToken = fmt.Errorf("invalid refresh token: %w", errs.ErrUnauthorized)
	ErrRefreshTokenExpired = fmt.Errorf("refresh token expired: %w", errs.ErrUnauthorized)
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type TokenStore interface {
	InsertRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error)
	FindRefresh(ctx context.Context, token string) (*models.RefreshToken, error)
	RotateRefresh(ctx context.Context, oldToken, newToken string, expiresAt time.Time) error
	DeleteRefreshByUser(ctx context.Context, userID int64) (int64, error)
	DeleteRefreshByToken(ctx context.Context, token string) error
	InsertAccess(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.AccessToken, error)
}

type Issuer interface {
	IssueAccess(ctx context.Context, userID int64) (string, time.Time, error)
	IssueRefresh(ctx context.Context) (string, time.Time, error)
	RefreshExpiry() time.Time
}

// Tokens is the credential pair handed back to the transport layer.
type Tokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type Service struct {
	users  UserStore
	tokens TokenStore
	issuer Issuer
}

func NewService(users UserStore, tokens TokenStore, issuer Issuer) *Service {
	return &Service{users: users, tokens: tokens, issuer: issuer}
}

// Login verifies the credentials and issues a fresh token pair. An unknown
// username and a wrong password fail identically with errs.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (Tokens, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Tokens{}, nil, errs.ErrUnauthorized
		}
		return Tokens{}, nil, fmt.Errorf("look up user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return Tokens{}, nil, errs.ErrUnauthorized
	}

	tokens, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return Tokens{}, nil, err
	}

	if _, err := s.tokens.InsertRefresh(ctx, user.ID, tokens.RefreshToken, tokens.RefreshExpiresAt); err != nil {
		return Tokens{}, nil, fmt.Errorf("persist refresh token: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID)
	return tokens, user, nil
}

// Refresh rotates the presented refresh token and issues a new access token.
// Rotation is compare-and-swap on the old token value, so a rotated token is
// rejected on any subsequent attempt.
func (s *Service) Refresh(ctx context.Context, refreshToken string, userID int64) (Tokens, error) {
	row, err := s.tokens.FindRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Tokens{}, ErrInvalidRefreshToken
		}
		return Tokens{}, fmt.Errorf("look up refresh token: %w", err)
	}

	if row.UserID != userID {
		return Tokens{}, ErrInvalidRefreshToken
	}

	if row.ExpiresAt.Before(time.Now()) {
		// Prune the stale row on detection; best effort.
		if err := s.tokens.DeleteRefreshByToken(ctx, refreshToken); err != nil {
			slog.Warn("failed to prune expired refresh token", "user_id", row.UserID, "error", err)
		}
		return Tokens{}, ErrRefreshTokenExpired
	}

	tokens, err := s.issueTokenPair(ctx, row.UserID)
	if err != nil {
		return Tokens{}, err
	}

	if err := s.tokens.RotateRefresh(ctx, refreshToken, tokens.RefreshToken, tokens.RefreshExpiresAt); err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			// Lost the rotation race; the old value is already gone.
			return Tokens{}, ErrInvalidRefreshToken
		}
		return Tokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	slog.Info("session refreshed", "user_id", row.UserID)
	return tokens, nil
}

// Logout deletes all refresh tokens for the user. Calling it twice, or with
// no active session, still succeeds.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	deleted, err := s.tokens.DeleteRefreshByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	slog.Info("user logged out", "user_id", userID, "tokens_deleted", deleted)
	return nil
}

func (s *Service) issueTokenPair(ctx context.Context, userID int64) (Tokens, error) {
	access, accessExp, err := s.issuer.IssueAccess(ctx, userID)
	if err != nil {
		return Tokens{}, fmt.Errorf("issue access token: %w", err)
	}

	// Bookkeeping row; the unique constraint backstops the issuance loop.
	if _, err := s.tokens.InsertAccess(ctx, userID, access, accessExp); err != nil {
		return Tokens{}, fmt.Errorf("persist access token: %w", err)
	}

	refresh, refreshExp, err := s.issuer.IssueRefresh(ctx)
	if err != nil {
		return Tokens{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return Tokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
