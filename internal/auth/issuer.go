package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/tasknest/internal/errs"
)

const (
	refreshTokenLen  = 32
	refreshAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxIssueAttempts = 5
)

// TokenExistenceStore answers whether a candidate token string is already
// persisted. The in-code check is a fast path; the database unique constraint
// is the actual guarantee under concurrent issuance.
type TokenExistenceStore interface {
	AccessTokenExists(ctx context.Context, token string) (bool, error)
	RefreshTokenExists(ctx context.Context, token string) (bool, error)
}

// Issuer mints access tokens, refresh tokens and API keys. The signing secret
// is injected once at construction and never re-read.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      TokenExistenceStore
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, store TokenExistenceStore) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
	}
}

// IssueAccess mints a signed access token, retrying on the astronomically
// unlikely collision with a stored token string.
func (i *Issuer) IssueAccess(ctx context.Context, userID int64) (string, time.Time, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, exp, err := NewAccessToken(i.secret, userID, i.accessTTL)
		if err != nil {
			return "", time.Time{}, err
		}

		exists, err := i.store.AccessTokenExists(ctx, token)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("access token uniqueness check: %w", err)
		}
		if !exists {
			return token, exp, nil
		}
	}
	return "", time.Time{}, fmt.Errorf("access token issuance exhausted %d attempts: %w", maxIssueAttempts, errs.ErrCrypto)
}

// IssueRefresh generates a 32-character alphanumeric token unique against the
// persisted token set.
func (i *Issuer) IssueRefresh(ctx context.Context) (string, time.Time, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, err := randAlphanumeric(refreshTokenLen)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("generate refresh token: %w", errs.ErrCrypto)
		}

		exists, err := i.store.RefreshTokenExists(ctx, token)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("refresh token uniqueness check: %w", err)
		}
		if !exists {
			return token, time.Now().Add(i.refreshTTL), nil
		}
	}
	return "", time.Time{}, fmt.Errorf("refresh token issuance exhausted %d attempts: %w", maxIssueAttempts, errs.ErrCrypto)
}

// RefreshExpiry returns the expiry a refresh token rotated now would carry.
func (i *Issuer) RefreshExpiry() time.Time {
	return time.Now().Add(i.refreshTTL)
}

// NewAPIKey returns a UUID v4 key. No uniqueness loop; the store's unique
// constraint is the safety net.
func NewAPIKey() string {
	return uuid.NewString()
}

// randAlphanumeric draws n characters from the alphanumeric alphabet using
// rejection sampling to keep the distribution uniform.
func randAlphanumeric(n int) (string, error) {
	const maxByte = 255 - (256 % len(refreshAlphabet))

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) > maxByte {
				continue
			}
			out = append(out, refreshAlphabet[int(b)%len(refreshAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
