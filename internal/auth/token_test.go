package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/tasknest/tasknest/internal/errs"
)

var testSecret = []byte("test-signing-secret")

func TestAccessToken_RoundTrip(t *testing.T) {
	token, exp, err := NewAccessToken(testSecret, 42, time.Hour)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	userID, err := VerifyAccessToken(testSecret, token)
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	token, _, err := NewAccessToken(testSecret, 7, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyAccessToken(testSecret, token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	token, _, err := NewAccessToken(testSecret, 7, time.Hour)
	require.NoError(t, err)

	_, err = VerifyAccessToken([]byte("a different secret"), token)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	_, err := VerifyAccessToken(testSecret, "not.a.token")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerifyAccessToken_UnsignedAlg(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = VerifyAccessToken(testSecret, token)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerifyAccessToken_MissingExpiry(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "42"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = VerifyAccessToken(testSecret, token)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerifyAccessToken_NonNumericSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = VerifyAccessToken(testSecret, token)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}
