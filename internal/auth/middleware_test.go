package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler(t *testing.T, gotUserID *int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotUserID != nil {
			*gotUserID = UserIDFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestCookieAuth_MissingToken(t *testing.T) {
	m := NewCookieAuth("secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)

	m.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing token", errorMessage(t, rec))
}

func TestCookieAuth_InvalidToken(t *testing.T) {
	m := NewCookieAuth("secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "garbage"})

	m.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid token", errorMessage(t, rec))
}

func TestCookieAuth_ExpiredToken(t *testing.T) {
	token, _, err := NewAccessToken([]byte("secret"), 42, -time.Minute)
	require.NoError(t, err)

	m := NewCookieAuth("secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

	m.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "token expired", errorMessage(t, rec))
}

func TestCookieAuth_ValidToken(t *testing.T) {
	token, _, err := NewAccessToken([]byte("secret"), 42, time.Hour)
	require.NoError(t, err)

	m := NewCookieAuth("secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

	var gotUserID int64
	m.Authenticate(okHandler(t, &gotUserID)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(42), gotUserID)
}

type fakeKeyChecker struct {
	active map[string]bool
	err    error
}

func (f *fakeKeyChecker) ActiveKeyExists(ctx context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.active[key], nil
}

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	m := NewAPIKeyAuth("X-Api-Key", &fakeKeyChecker{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/external/users", nil)

	m.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyAuth_InactiveKey(t *testing.T) {
	checker := &fakeKeyChecker{active: map[string]bool{}}
	m := NewAPIKeyAuth("X-Api-Key", checker)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/external/users", nil)
	req.Header.Set("X-Api-Key", "deactivated-key")

	m.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid or inactive API key", errorMessage(t, rec))
}

func TestAPIKeyAuth_ActiveKey(t *testing.T) {
	checker := &fakeKeyChecker{active: map[string]bool{"good-key": true}}
	m := NewAPIKeyAuth("X-Api-Key", checker)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/external/users", nil)
	req.Header.Set("X-Api-Key", "good-key")

	m.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuth_StoreError(t *testing.T) {
	checker := &fakeKeyChecker{err: errors.New("connection refused")}
	m := NewAPIKeyAuth("X-Api-Key", checker)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/external/users", nil)
	req.Header.Set("X-Api-Key", "any-key")

	m.Authenticate(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
