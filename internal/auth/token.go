package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tasknest/tasknest/internal/errs"
)

// ErrTokenExpired distinguishes a structurally valid but stale access token
// from other verification failures, for the middleware's response message.
var ErrTokenExpired = errors.New("token expired")

// NewAccessToken signs HS256 claims {sub: user id, exp: now + ttl}.
func NewAccessToken(secret []byte, userID int64, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", errs.ErrCrypto)
	}
	return signed, exp, nil
}

// VerifyAccessToken treats "signature valid AND not expired" as one predicate
// and returns the subject user id. Expiry is checked explicitly on the parsed
// claims as well, so a token without an exp claim is rejected rather than
// treated as eternal.
func VerifyAccessToken(secret []byte, tokenStr string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, errs.ErrUnauthorized
	}
	if !token.Valid {
		return 0, errs.ErrUnauthorized
	}

	if claims.ExpiresAt == nil {
		return 0, errs.ErrUnauthorized
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		return 0, ErrTokenExpired
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errs.ErrUnauthorized
	}
	return userID, nil
}
