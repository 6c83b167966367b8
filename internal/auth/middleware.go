package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Cookie names shared by the middleware and the session handlers.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// UserIDFromContext returns the authenticated user id set by CookieAuth,
// or zero when the request was not cookie-authenticated.
func UserIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// CookieAuth gates requests on a valid access-token cookie. It never mutates
// the request and never touches refresh tokens.
type CookieAuth struct {
	secret []byte
}

func NewCookieAuth(secret string) *CookieAuth {
	return &CookieAuth{secret: []byte(secret)}
}

func (m *CookieAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(AccessTokenCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		userID, err := VerifyAccessToken(m.secret, cookie.Value)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "token expired")
			} else {
				writeError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// APIKeyChecker validates a presented key against the store.
type APIKeyChecker interface {
	ActiveKeyExists(ctx context.Context, key string) (bool, error)
}

// APIKeyAuth gates requests on an active API key in a custom header.
type APIKeyAuth struct {
	header string
	keys   APIKeyChecker
}

func NewAPIKeyAuth(header string, keys APIKeyChecker) *APIKeyAuth {
	return &APIKeyAuth{header: header, keys: keys}
}

func (m *APIKeyAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(m.header)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing API key")
			return
		}

		ok, err := m.keys.ActiveKeyExists(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or inactive API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
